package testutil

import (
	"context"
	"io"
	"strings"
	"sync"
)

type Mail struct {
	To, Subject, Body string
}

// Mailer records mails instead of sending them. Setting Err makes every
// Send fail.
type Mailer struct {
	mu   sync.Mutex
	sent []Mail
	Err  error
}

func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.sent = append(m.sent, Mail{to, subject, body})
	return nil
}

func (m *Mailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}

// LastLink returns the first link starting with prefix in the newest mail
func (m *Mailer) LastLink(prefix string) string {
	sent := m.Sent()
	if len(sent) == 0 {
		return ""
	}

	body := sent[len(sent)-1].Body
	start := strings.Index(body, prefix)
	if start < 0 {
		return ""
	}

	end := strings.IndexAny(body[start:], "'\" \n")
	if end < 0 {
		return body[start:]
	}

	return body[start : start+end]
}

// Sink keeps written objects in memory. OnWrite, when set, runs after every
// successful Write.
type Sink struct {
	mu      sync.Mutex
	objects map[string][]byte
	Err     error
	OnWrite func()
}

func (s *Sink) Write(_ context.Context, key string, body io.Reader, _ string) error {
	if s.Err != nil {
		return s.Err
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = b
	s.mu.Unlock()

	if s.OnWrite != nil {
		s.OnWrite()
	}

	return nil
}

func (s *Sink) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

func (s *Sink) URL(key string) string {
	return "https://cdn.example.com/" + key
}

func (s *Sink) Objects() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]byte, len(s.objects))
	for k, v := range s.objects {
		out[k] = v
	}

	return out
}
