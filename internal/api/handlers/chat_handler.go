package handlers

import (
	"errors"

	"costlens/internal/dto"
	"costlens/internal/service"
	"costlens/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

// History godoc
// @Summary Chat history
// @Tags chat
// @Produce json
// @Security Bearer
// @Success 200 {array} models.ChatMessage
// @Router /api/v1/chat [get]
func (h *ChatHandler) History(c *fiber.Ctx) error {
	return c.JSON(h.chat.History())
}

// Send godoc
// @Summary Send a chat message
// @Description Appends the question and the assistant's answer to the chat history
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Message"
// @Security Bearer
// @Success 200 {object} dto.ChatExchange
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/chat [post]
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	exchange, err := h.chat.Send(c.UserContext(), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuestion):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No question provided",
			})
		case errors.Is(err, store.ErrBusy):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Another request is in progress",
			})
		}
		h.logger.Error("Chat failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Chat failed",
		})
	}

	return c.JSON(exchange)
}
