package handlers

import (
	"errors"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/middleware"
	"github.com/engtoolshub/engtools-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ToolHandler struct {
	toolService *services.ToolService
}

func NewToolHandler(toolService *services.ToolService) *ToolHandler {
	return &ToolHandler{toolService: toolService}
}

func (h *ToolHandler) ListTools(c *fiber.Ctx) error {
	user := middleware.User(c)
	tools, err := h.toolService.List(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch tools",
		})
	}
	return c.JSON(tools)
}

func (h *ToolHandler) GetTool(c *fiber.Ctx) error {
	user := middleware.User(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid tool ID",
		})
	}

	tool, err := h.toolService.Get(user, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrToolNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrToolLocked):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch tool",
		})
	}
	return c.JSON(tool)
}

func (h *ToolHandler) CreateTool(c *fiber.Ctx) error {
	var req dto.ToolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	tool, err := h.toolService.Create(&req)
	if err != nil {
		if isToolValidationErr(err) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create tool",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(tool)
}

func (h *ToolHandler) UpdateTool(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid tool ID",
		})
	}

	var req dto.ToolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	tool, err := h.toolService.Update(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrToolNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case isToolValidationErr(err):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update tool",
		})
	}
	return c.JSON(tool)
}

func (h *ToolHandler) DeleteTool(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid tool ID",
		})
	}

	if err := h.toolService.Delete(id); err != nil {
		if errors.Is(err, services.ErrToolNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete tool",
		})
	}
	return c.JSON(fiber.Map{"message": "Tool deleted"})
}

func isToolValidationErr(err error) bool {
	return errors.Is(err, services.ErrToolPayload) ||
		errors.Is(err, services.ErrToolAccessLevel) ||
		errors.Is(err, services.ErrToolLinkType)
}
