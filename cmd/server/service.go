package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/yourusername/soundclip-go/internal/app"
)

// program adapts the server to the service manager lifecycle
type program struct {
	server *server
}

func (p *program) Start(s service.Service) error {
	srv, err := newServer(*configPath)
	if err != nil {
		return err
	}
	p.server = srv

	// Start must not block
	go srv.serve()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.server != nil {
		p.server.shutdown()
	}
	return nil
}

func newService(prg *program) (service.Service, error) {
	return service.New(prg, app.ServiceConfig(*configPath))
}

// runService runs the server in the foreground or under the service
// manager. Run blocks until an interrupt or a stop request.
func runService() error {
	s, err := newService(&program{})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return s.Run()
}

// controlService performs install, uninstall, start, stop or restart
func controlService(action string) error {
	s, err := newService(&program{})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return service.Control(s, action)
}
