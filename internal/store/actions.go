package store

import (
	"errors"
	"fmt"

	"costlens/internal/models"
)

var (
	ErrRecommendationNotFound  = errors.New("recommendation not found")
	ErrInvalidStatusTransition = errors.New("invalid recommendation status transition")
)

// Action turns one state into the next. Actions never modify their input.
type Action func(State) (State, error)

func SetCostData(records []models.CostRecord) Action {
	records = cloneSlice(records)
	return func(s State) (State, error) {
		s.CostData = records
		return s, nil
	}
}

func SetAnomalies(anomalies []models.Anomaly) Action {
	anomalies = cloneSlice(anomalies)
	return func(s State) (State, error) {
		s.Anomalies = anomalies
		return s, nil
	}
}

func SetRecommendations(recommendations []models.Recommendation) Action {
	recommendations = cloneSlice(recommendations)
	return func(s State) (State, error) {
		s.Recommendations = recommendations
		return s, nil
	}
}

// UpdateRecommendationStatus moves a pending recommendation to implemented
// or ignored. Every other recommendation is carried over untouched.
func UpdateRecommendationStatus(id string, status models.RecommendationStatus) Action {
	return func(s State) (State, error) {
		if status != models.StatusImplemented && status != models.StatusIgnored {
			return s, fmt.Errorf("%w: target status %q", ErrInvalidStatusTransition, status)
		}

		idx := -1
		for i, rec := range s.Recommendations {
			if rec.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s, fmt.Errorf("%w: %s", ErrRecommendationNotFound, id)
		}
		if current := s.Recommendations[idx].Status; current != models.StatusPending {
			return s, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current, status)
		}

		next := cloneSlice(s.Recommendations)
		next[idx].Status = status
		s.Recommendations = next
		return s, nil
	}
}

func AddChatMessage(msg models.ChatMessage) Action {
	return func(s State) (State, error) {
		next := make([]models.ChatMessage, len(s.ChatMessages), len(s.ChatMessages)+1)
		copy(next, s.ChatMessages)
		s.ChatMessages = append(next, msg)
		return s, nil
	}
}

func SetLoading(loading bool) Action {
	return func(s State) (State, error) {
		s.IsLoading = loading
		return s, nil
	}
}

// Reset clears all data. It fails with ErrBusy while a request holds the
// loading flag, since that request would overwrite the cleared state.
func Reset() Action {
	return func(s State) (State, error) {
		if s.IsLoading {
			return s, ErrBusy
		}
		return State{}, nil
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
