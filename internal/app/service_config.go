package app

import (
	"github.com/kardianos/service"
)

// ServiceName is the name the server registers under with the service manager
const ServiceName = "soundclip"

// ServiceConfig describes the soundclip server service. The server installs
// and runs it; the CLI uses the same description to find and start it.
func ServiceConfig(configPath string) *service.Config {
	options := make(service.KeyValue)
	var depends []string

	switch service.ChosenSystem().String() {
	case "linux-systemd":
		depends = append(depends, "After=network-online.target")
		options["Restart"] = "on-failure"
		options["UserService"] = true
	case "darwin-launchd":
		options["KeepAlive"] = true
		options["RunAtLoad"] = true
		options["UserService"] = true
	case "windows-service":
		options["DelayedAutoStart"] = true
		options["OnFailure"] = "restart"
	}

	config := &service.Config{
		Name:         ServiceName,
		DisplayName:  "SoundClip",
		Description:  "SoundClip audio download service",
		Dependencies: depends,
		Option:       options,
	}
	if configPath != "" {
		config.Arguments = []string{"-config", configPath}
	}
	return config
}
