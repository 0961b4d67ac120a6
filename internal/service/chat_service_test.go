package service

import (
	"context"
	"errors"
	"testing"

	"costlens/internal/dto"
	"costlens/internal/models"
	"costlens/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAsker struct {
	resp *dto.AskResponse
	err  error
}

func (a stubAsker) Ask(context.Context, string) (*dto.AskResponse, error) {
	return a.resp, a.err
}

func TestChatSend(t *testing.T) {
	tests := []struct {
		name  string
		asker stubAsker
		want  string
	}{
		{
			name:  "success",
			asker: stubAsker{resp: &dto.AskResponse{Success: true, Response: "EC2 is up"}},
			want:  "EC2 is up",
		},
		{
			name:  "failed answer carries its error",
			asker: stubAsker{resp: &dto.AskResponse{Success: false, Error: "no such column"}},
			want:  "no such column",
		},
		{
			name:  "failed answer without error",
			asker: stubAsker{resp: &dto.AskResponse{Success: false}},
			want:  chatAnalyzeFailure,
		},
		{
			name:  "asker error",
			asker: stubAsker{err: errors.New("connection refused")},
			want:  chatServerFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.New(zap.NewNop())
			chat := NewChatService(st, tt.asker, zap.NewNop())

			exchange, err := chat.Send(context.Background(), " How is EC2? ")
			require.NoError(t, err)

			assert.Equal(t, models.RoleUser, exchange.Question.Role)
			assert.Equal(t, "How is EC2?", exchange.Question.Content)
			assert.Equal(t, models.RoleAssistant, exchange.Answer.Role)
			assert.Equal(t, tt.want, exchange.Answer.Content)
			assert.NotEqual(t, exchange.Question.ID, exchange.Answer.ID)

			history := chat.History()
			require.Len(t, history, 2)
			assert.Equal(t, exchange.Question, history[0])
			assert.Equal(t, exchange.Answer, history[1])
			assert.False(t, st.Snapshot().IsLoading)
		})
	}
}

func TestChatSend_Rejections(t *testing.T) {
	st := store.New(zap.NewNop())
	chat := NewChatService(st, stubAsker{resp: &dto.AskResponse{Success: true}}, zap.NewNop())

	assert.Empty(t, chat.History())
	assert.NotNil(t, chat.History())

	_, err := chat.Send(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	require.NoError(t, st.TryBeginLoading())
	_, err = chat.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, store.ErrBusy)
	assert.Empty(t, chat.History())
}
