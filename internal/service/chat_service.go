package service

import (
	"context"
	"strings"
	"time"

	"costlens/internal/dto"
	"costlens/internal/models"
	"costlens/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	chatAnalyzeFailure = "Sorry, I encountered an error analyzing your question."
	chatServerFailure  = "Sorry, I encountered an error connecting to the server. Please try again."
)

// Asker answers a single question.
type Asker interface {
	Ask(ctx context.Context, question string) (*dto.AskResponse, error)
}

// ChatService keeps the dashboard's chat history in the store. Each
// exchange holds the store's loading flag until the answer is appended.
type ChatService struct {
	store  *store.Store
	asker  Asker
	logger *zap.Logger
	now    func() time.Time
}

func NewChatService(st *store.Store, asker Asker, logger *zap.Logger) *ChatService {
	return &ChatService{store: st, asker: asker, logger: logger, now: time.Now}
}

func (s *ChatService) History() []models.ChatMessage {
	return nonNil(s.store.Snapshot().ChatMessages)
}

// Send appends the user's message and the assistant's answer. It fails with
// store.ErrBusy while another exchange or upload is running.
func (s *ChatService) Send(ctx context.Context, content string) (*dto.ChatExchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyQuestion
	}

	if err := s.store.TryBeginLoading(); err != nil {
		return nil, err
	}
	defer s.store.EndLoading()

	question := s.message(models.RoleUser, content)
	if _, err := s.store.Dispatch(store.AddChatMessage(question)); err != nil {
		return nil, err
	}

	answerText := s.answer(ctx, content)
	answer := s.message(models.RoleAssistant, answerText)
	if _, err := s.store.Dispatch(store.AddChatMessage(answer)); err != nil {
		return nil, err
	}

	return &dto.ChatExchange{Question: question, Answer: answer}, nil
}

func (s *ChatService) answer(ctx context.Context, content string) string {
	resp, err := s.asker.Ask(ctx, content)
	if err != nil {
		s.logger.Error("Chat answer failed", zap.Error(err))
		return chatServerFailure
	}
	if resp.Success {
		return resp.Response
	}
	if resp.Error != "" {
		return resp.Error
	}
	return chatAnalyzeFailure
}

func (s *ChatService) message(role models.ChatRole, content string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
}
