// Package store keeps the dashboard state in memory. State is replaced as a
// whole on every dispatch; slices inside a State are never written after the
// State is published, so snapshots can be read without copying.
package store

import (
	"errors"
	"sync"

	"costlens/internal/models"

	"go.uber.org/zap"
)

var ErrBusy = errors.New("another request is in progress")

type State struct {
	CostData        []models.CostRecord
	Anomalies       []models.Anomaly
	Recommendations []models.Recommendation
	ChatMessages    []models.ChatMessage
	IsLoading       bool
}

type Store struct {
	mu     sync.RWMutex
	state  State
	logger *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// Dispatch applies actions in order. Either all of them take effect or,
// when one fails, none do.
func (s *Store) Dispatch(actions ...Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	for _, action := range actions {
		var err error
		next, err = action(next)
		if err != nil {
			s.logger.Debug("Action rejected", zap.Error(err))
			return s.state, err
		}
	}
	s.state = next
	return next, nil
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// TryBeginLoading sets the loading flag, failing with ErrBusy when it is
// already set.
func (s *Store) TryBeginLoading() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsLoading {
		return ErrBusy
	}
	s.state.IsLoading = true
	return nil
}

func (s *Store) EndLoading() {
	s.mu.Lock()
	s.state.IsLoading = false
	s.mu.Unlock()
}
