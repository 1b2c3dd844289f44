package infrastructure

import "sync"

// ProcessSlot holds the handle of the single running yt-dlp process.
// Whoever removes the handle (completion or cancel) decides the outcome.
// Critical sections only swap the handle; no I/O happens under the lock.
type ProcessSlot struct {
	mu   sync.Mutex
	proc Process
}

// NewProcessSlot creates an empty slot
func NewProcessSlot() *ProcessSlot {
	return &ProcessSlot{}
}

// Set stores p if the slot is empty and reports whether it did
func (s *ProcessSlot) Set(p Process) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		return false
	}
	s.proc = p
	return true
}

// Holds reports whether the slot currently holds p
func (s *ProcessSlot) Holds(p Process) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc == p
}

// Release clears the slot if it still holds p. False means someone else
// (cancel) already took it.
func (s *ProcessSlot) Release(p Process) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != p {
		return false
	}
	s.proc = nil
	return true
}

// Take empties the slot and returns what it held, or nil
func (s *ProcessSlot) Take() Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.proc
	s.proc = nil
	return p
}

// Current returns the held process without removing it
func (s *ProcessSlot) Current() Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc
}

// Occupied reports whether a process is running
func (s *ProcessSlot) Occupied() bool {
	return s.Current() != nil
}
