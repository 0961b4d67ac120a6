package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponderMatch(t *testing.T) {
	r := NewKeywordResponder(0)

	tests := []struct {
		question string
		want     string
	}{
		{question: "Why did my S3 costs double last week?", want: "s3-growth"},
		{question: "s3 increase and EC2 growth", want: "s3-growth"},
		{question: "What about S3 in general?", want: "overview"},
		{question: "How much is EC2 costing me?", want: "ec2"},
		{question: "Show COMPUTE spend and how to save", want: "ec2"},
		{question: "How can I optimize my bill?", want: "savings"},
		{question: "Predict next month", want: "forecast"},
		{question: "What are my most expensive services?", want: "top-services"},
		{question: "hello", want: "overview"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			name, answer := r.Match(tt.question)
			assert.Equal(t, tt.want, name)
			assert.NotEmpty(t, answer)
		})
	}

	_, answer := r.Match("anything")
	assert.Contains(t, answer, "I've analyzed your AWS cost data.")
}

func TestResponderRespond(t *testing.T) {
	answer, err := NewKeywordResponder(0).Respond(context.Background(), "forecast please")
	require.NoError(t, err)
	assert.Equal(t, forecastAnswer, answer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewKeywordResponder(time.Hour).Respond(ctx, "forecast")
	assert.ErrorIs(t, err, context.Canceled)
}
