package handlers

import (
	"errors"
	"strconv"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService   *services.AdminService
	promoService   *services.PromoService
	sweeperService *services.SweeperService
}

func NewAdminHandler(adminService *services.AdminService, promoService *services.PromoService, sweeperService *services.SweeperService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		promoService:   promoService,
		sweeperService: sweeperService,
	}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	users, total, err := h.adminService.ListUsers(page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch users",
		})
	}
	return c.JSON(fiber.Map{"users": users, "total": total, "page": page})
}

// GrantDays applies an admin-assigned plan extension through the same
// pro-status path that promo codes and payments use.
func (h *AdminHandler) GrantDays(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	var req dto.GrantDaysRequest
	if err := c.BodyParser(&req); err != nil || req.Days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Days must be a positive number",
		})
	}

	user, err := h.promoService.ExtendProStatus(c.Context(), userID, req.TargetRole, req.Days)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to grant days",
		})
	}
	return c.JSON(user)
}

// ForceExpirationCheck triggers the purchase sweep manually. It shares the
// predicate with the scheduled run, so both always agree.
func (h *AdminHandler) ForceExpirationCheck(c *fiber.Ctx) error {
	count, err := h.sweeperService.SweepPurchases(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Expiration check failed",
		})
	}
	return c.JSON(dto.SweepResponse{
		Affected: count,
		Message:  "Expired course purchases deactivated",
	})
}

// CheckExpiredPlans triggers the role-expiry sweep manually.
func (h *AdminHandler) CheckExpiredPlans(c *fiber.Ctx) error {
	count, err := h.sweeperService.SweepExpiredPlans(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Plan expiry check failed",
		})
	}
	return c.JSON(dto.SweepResponse{
		Affected: int64(count),
		Message:  "Expired plans downgraded",
	})
}

func (h *AdminHandler) CreatePromo(c *fiber.Ctx) error {
	var req dto.CreatePromoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	promo, err := h.adminService.CreatePromo(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPromoTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrPromoInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create promo code",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(promo)
}

func (h *AdminHandler) ListPromos(c *fiber.Ctx) error {
	promos, err := h.adminService.ListPromos()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch promo codes",
		})
	}
	return c.JSON(promos)
}

func (h *AdminHandler) DeactivatePromo(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid promo code ID",
		})
	}

	if err := h.adminService.DeactivatePromo(id); err != nil {
		if errors.Is(err, services.ErrPromoNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to deactivate promo code",
		})
	}
	return c.JSON(fiber.Map{"message": "Promo code deactivated"})
}

func (h *AdminHandler) PromoUsages(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid promo code ID",
		})
	}

	usages, err := h.adminService.PromoUsages(id)
	if err != nil {
		if errors.Is(err, services.ErrPromoNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch promo usages",
		})
	}
	return c.JSON(usages)
}
