// Package ui provides the interactive terminal session for uploading
// documents and asking questions about them.
package ui

import (
	"context"

	"github.com/askdoc/askdoc/internal/rag"
)

// State describes how far the session has progressed.
type State int

const (
	// StateNoModel means no Engine is attached yet; the session is
	// waiting for credentials.
	StateNoModel State = iota
	// StateReadyEmpty means the Engine is live but nothing has been
	// indexed.
	StateReadyEmpty
	// StateReadyIndexed means at least one document chunk is indexed
	// and questions can be answered.
	StateReadyIndexed
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateNoModel:
		return "waiting for API key"
	case StateReadyEmpty:
		return "ready, no document"
	case StateReadyIndexed:
		return "document indexed"
	default:
		return "unknown"
	}
}

// Service is the narrow Engine surface the session depends on.
type Service interface {
	IndexDocument(ctx context.Context, path string) (int, error)
	Query(ctx context.Context, question string, topK int) (*rag.Answer, error)
	ClearIndex() error
	Size() int
}

var _ Service = (*rag.Engine)(nil)

// Session tracks the Engine handle and the progression state that the
// views key off. The Engine stays attached across index clears; only
// the state moves back.
type Session struct {
	svc   Service
	state State
}

// NewSession creates a session with no Engine attached.
func NewSession() *Session {
	return &Session{state: StateNoModel}
}

// Attach hands the session a live Engine. A non-empty persisted index
// resumes directly as indexed.
func (s *Session) Attach(svc Service) {
	s.svc = svc
	s.Refresh()
}

// Refresh re-derives the state from the attached Engine's index size.
func (s *Session) Refresh() {
	switch {
	case s.svc == nil:
		s.state = StateNoModel
	case s.svc.Size() > 0:
		s.state = StateReadyIndexed
	default:
		s.state = StateReadyEmpty
	}
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Service returns the attached Engine surface, nil before Attach.
func (s *Session) Service() Service {
	return s.svc
}

// Indexed reports whether questions can be answered.
func (s *Session) Indexed() bool {
	return s.state == StateReadyIndexed
}
