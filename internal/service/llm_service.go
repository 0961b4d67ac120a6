package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"costlens/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

var ErrEmptyCompletion = errors.New("no response from LLM")

// LLM is a single-turn text completion backend.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Close() error
}

// NewLLM builds the provider selected by LLM_PROVIDER. It returns nil, nil
// when no provider is configured.
func NewLLM(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (LLM, error) {
	switch cfg.Provider {
	case config.ProviderGigaChat:
		return NewGigaChatLLM(ctx, &cfg.GigaChat, logger)
	case config.ProviderArk:
		return NewArkLLM(ctx, &cfg.Ark, logger)
	case config.ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

const gigaChatTemperature = 0.3

type GigaChatLLM struct {
	client    *gigago.Client
	modelName string
	logger    *zap.Logger
}

func NewGigaChatLLM(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatLLM, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	logger.Info("GigaChat client initialized", zap.String("model", cfg.Model))
	return &GigaChatLLM{client: client, modelName: cfg.Model, logger: logger}, nil
}

func (l *GigaChatLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	// a fresh model per call keeps SystemInstruction request-local
	m := l.client.GenerativeModel(l.modelName)
	m.SystemInstruction = system
	m.Temperature = gigaChatTemperature

	resp, err := m.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	l.logger.Debug("GigaChat completion", zap.Int("length", len(content)))
	return content, nil
}

func (l *GigaChatLLM) Close() error {
	if l.client != nil {
		l.client.Close()
	}
	return nil
}

type ArkLLM struct {
	chatModel model.ChatModel
	logger    *zap.Logger
}

func NewArkLLM(ctx context.Context, cfg *config.ArkConfig, logger *zap.Logger) (*ArkLLM, error) {
	if !cfg.Enabled() {
		return nil, errors.New("ark credentials or model missing: set ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY and ARK_MODEL")
	}

	var temperature *float32
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		temperature = &val
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		AccessKey:   cfg.AccessKey,
		SecretKey:   cfg.SecretKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	logger.Info("Ark chat model initialized", zap.String("model", cfg.Model))
	return &ArkLLM{chatModel: chatModel, logger: logger}, nil
}

func (l *ArkLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: prompt},
	}

	resp, err := l.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Content)
	l.logger.Debug("Ark completion", zap.Int("length", len(content)))
	return content, nil
}

func (l *ArkLLM) Close() error {
	return nil
}
