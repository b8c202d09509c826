package handlers

import (
	"errors"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/middleware"
	"github.com/engtoolshub/engtools-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) CreateThread(c *fiber.Ctx) error {
	user := middleware.User(c)

	var req dto.CreateThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	thread, err := h.chatService.CreateThread(user.ID, req.Subject, req.Body)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create thread",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(thread)
}

func (h *ChatHandler) ListThreads(c *fiber.Ctx) error {
	user := middleware.User(c)
	threads, err := h.chatService.ListThreads(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch threads",
		})
	}
	return c.JSON(threads)
}

func (h *ChatHandler) ListAllThreads(c *fiber.Ctx) error {
	threads, err := h.chatService.ListAllThreads()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch threads",
		})
	}
	return c.JSON(threads)
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	user := middleware.User(c)
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid thread ID",
		})
	}

	messages, err := h.chatService.Messages(user, threadID)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(messages)
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	user := middleware.User(c)
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid thread ID",
		})
	}

	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	msg, err := h.chatService.PostMessage(user, threadID, req.Body)
	if err != nil {
		return chatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *ChatHandler) CloseThread(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid thread ID",
		})
	}

	if err := h.chatService.CloseThread(threadID); err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Thread closed"})
}

func chatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrThreadNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrThreadForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrThreadClosed), errors.Is(err, services.ErrEmptyMessage):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Chat operation failed",
	})
}
