package service

import (
	"context"
	"sync"

	"pdf-reader/internal/domain"
)

// SessionManager hands out one reading session per open document.
type SessionManager struct {
	store    sessionStore
	renderer domain.Renderer
	writer   *ProgressWriter
	logger   domain.Logger

	mu       sync.Mutex
	sessions map[string]*ReadingSession
	// busy marks documents held by Exclusive; the channel closes when it returns.
	busy map[string]chan struct{}
}

// NewSessionManager creates a session manager sharing one progress writer.
func NewSessionManager(store sessionStore, renderer domain.Renderer, writer *ProgressWriter, logger domain.Logger) *SessionManager {
	return &SessionManager{
		store:    store,
		renderer: renderer,
		writer:   writer,
		logger:   logger,
		sessions: make(map[string]*ReadingSession),
		busy:     make(map[string]chan struct{}),
	}
}

// Open returns the session for documentID, opening it if needed. It waits while an
// Exclusive call holds the document.
func (m *SessionManager) Open(ctx context.Context, documentID string) (*ReadingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.waitIdle(ctx, documentID); err != nil {
		return nil, err
	}
	if s, ok := m.sessions[documentID]; ok {
		return s, nil
	}
	s, err := OpenReadingSession(ctx, documentID, m.store, m.renderer, m.writer, m.logger)
	if err != nil {
		return nil, err
	}
	m.sessions[documentID] = s
	return s, nil
}

// Exclusive closes the session for documentID and runs fn while no session can be opened
// for it. Delete and re-ingest go through here.
func (m *SessionManager) Exclusive(ctx context.Context, documentID string, fn func() error) error {
	m.mu.Lock()
	if err := m.waitIdle(ctx, documentID); err != nil {
		m.mu.Unlock()
		return err
	}
	done := make(chan struct{})
	m.busy[documentID] = done
	s, ok := m.sessions[documentID]
	delete(m.sessions, documentID)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.busy, documentID)
		m.mu.Unlock()
		close(done)
	}()

	if ok {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Failed to close reading session", "document_id", documentID, "error", err)
		}
	}
	return fn()
}

// waitIdle blocks until no Exclusive call holds documentID. m.mu is held on entry and on return.
func (m *SessionManager) waitIdle(ctx context.Context, documentID string) error {
	for {
		done, busy := m.busy[documentID]
		if !busy {
			return nil
		}
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			m.mu.Lock()
			return ctx.Err()
		}
		m.mu.Lock()
	}
}

// Get returns the open session for documentID.
func (m *SessionManager) Get(documentID string) (*ReadingSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[documentID]
	return s, ok
}

// Close closes the session for documentID if one is open.
func (m *SessionManager) Close(ctx context.Context, documentID string) error {
	m.mu.Lock()
	s, ok := m.sessions[documentID]
	delete(m.sessions, documentID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close(ctx)
}

// CloseAll closes every open session and returns the first error.
func (m *SessionManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*ReadingSession)
	m.mu.Unlock()

	var firstErr error
	for id, s := range sessions {
		if err := s.Close(ctx); err != nil {
			m.logger.Error("Failed to close reading session", err, "document_id", id)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
