package handlers

import (
	"errors"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/middleware"
	"github.com/engtoolshub/engtools-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PromoHandler struct {
	promoService *services.PromoService
}

func NewPromoHandler(promoService *services.PromoService) *PromoHandler {
	return &PromoHandler{promoService: promoService}
}

// UsePromo redeems a code for the current user. Validation failures are
// business outcomes, not server errors: each maps to 4xx with its message.
func (h *PromoHandler) UsePromo(c *fiber.Ctx) error {
	user := middleware.User(c)

	var req dto.UsePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Promo code is required",
		})
	}

	result, err := h.promoService.Redeem(c.Context(), user.ID, req.Code, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeUsed):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrCodeInvalid),
			errors.Is(err, services.ErrCodeLimit),
			errors.Is(err, services.ErrCodeExpired),
			errors.Is(err, services.ErrCodeWrongType),
			errors.Is(err, services.ErrCodeWrongCourse):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to redeem promo code",
		})
	}

	return c.JSON(result)
}
