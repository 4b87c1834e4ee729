package sshclient

import (
	"context"
	"fmt"
	"sync"
)

// FakeDialer is a Dialer test double. It hands back a FakeSession scripted
// with canned responses per command, so discovery/fingerprint/collection
// tests never open a real socket.
type FakeDialer struct {
	mu       sync.Mutex
	Sessions map[string]*FakeSession // addr -> session to return
	DialErr  map[string]error        // addr -> error to return instead
	Dialed   []string
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{
		Sessions: make(map[string]*FakeSession),
		DialErr:  make(map[string]error),
	}
}

func (f *FakeDialer) Dial(_ context.Context, addr string, _ Credentials, _ Config) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dialed = append(f.Dialed, addr)

	if err, ok := f.DialErr[addr]; ok {
		return nil, err
	}
	sess, ok := f.Sessions[addr]
	if !ok {
		return nil, fmt.Errorf("fake dialer: no session scripted for %q", addr)
	}
	return sess, nil
}

// FakeSession replays scripted command -> output pairs and records what was
// asked of it, for assertions on command ordering and prompt-off sequences.
type FakeSession struct {
	mu       sync.Mutex
	Responses map[string]string // cmd -> output to return
	Errs      map[string]error  // cmd -> error to return
	History   []string
	Closed    bool
}

func NewFakeSession() *FakeSession {
	return &FakeSession{
		Responses: make(map[string]string),
		Errs:      make(map[string]error),
	}
}

func (s *FakeSession) RunUntilPrompt(_ context.Context, cmd string, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, cmd)

	if err, ok := s.Errs[cmd]; ok {
		return "", err
	}
	out, ok := s.Responses[cmd]
	if !ok {
		return "", fmt.Errorf("fake session: no response scripted for %q", cmd)
	}
	return out, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
