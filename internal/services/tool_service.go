package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/entitlement"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrToolNotFound    = errors.New("tool not found")
	ErrToolLocked      = errors.New("your plan does not include this tool")
	ErrToolPayload     = errors.New("tool must have exactly one of link or custom HTML, matching its link type")
	ErrToolAccessLevel = errors.New("invalid access level")
	ErrToolLinkType    = errors.New("invalid link type")
)

type ToolService struct {
	db *gorm.DB
}

func NewToolService(db *gorm.DB) *ToolService {
	return &ToolService{db: db}
}

// List returns the tools the user may know about, filtered server-side:
// CPF-restricted tools the user is not allowed to see are omitted entirely,
// and tools above the user's tier are listed locked with their link and
// custom HTML stripped, so ineligible clients never receive the payload.
func (s *ToolService) List(user *models.User) ([]dto.ToolResponse, error) {
	var tools []models.Tool
	if err := s.db.Order("category, name").Find(&tools).Error; err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	out := make([]dto.ToolResponse, 0, len(tools))
	for i := range tools {
		tool := &tools[i]
		switch entitlement.ResolveToolVisibility(user, tool) {
		case entitlement.ToolHidden:
			continue
		case entitlement.ToolLocked:
			out = append(out, dto.NewLockedToolResponse(tool))
		case entitlement.ToolAllowed:
			out = append(out, dto.NewToolResponse(tool))
		}
	}
	return out, nil
}

// Get returns a single tool. Hidden tools answer not-found so their
// existence never leaks; locked tools answer a distinct locked error.
func (s *ToolService) Get(user *models.User, id uuid.UUID) (*dto.ToolResponse, error) {
	var tool models.Tool
	if err := s.db.First(&tool, "id = ?", id).Error; err != nil {
		return nil, ErrToolNotFound
	}

	switch entitlement.ResolveToolVisibility(user, &tool) {
	case entitlement.ToolHidden:
		return nil, ErrToolNotFound
	case entitlement.ToolLocked:
		return nil, ErrToolLocked
	}

	resp := dto.NewToolResponse(&tool)
	return &resp, nil
}

func (s *ToolService) Create(req *dto.ToolRequest) (*models.Tool, error) {
	tool := models.Tool{ID: uuid.New()}
	if err := applyToolRequest(&tool, req); err != nil {
		return nil, err
	}
	if err := s.db.Create(&tool).Error; err != nil {
		return nil, fmt.Errorf("failed to create tool: %w", err)
	}
	return &tool, nil
}

func (s *ToolService) Update(id uuid.UUID, req *dto.ToolRequest) (*models.Tool, error) {
	var tool models.Tool
	if err := s.db.First(&tool, "id = ?", id).Error; err != nil {
		return nil, ErrToolNotFound
	}
	if err := applyToolRequest(&tool, req); err != nil {
		return nil, err
	}
	if err := s.db.Save(&tool).Error; err != nil {
		return nil, fmt.Errorf("failed to update tool: %w", err)
	}
	return &tool, nil
}

func (s *ToolService) Delete(id uuid.UUID) error {
	res := s.db.Delete(&models.Tool{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete tool: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrToolNotFound
	}
	return nil
}

// applyToolRequest validates and copies a create/update payload. The
// link-type invariant is enforced here: internal and external tools carry a
// link only, custom tools carry embedded HTML only.
func applyToolRequest(tool *models.Tool, req *dto.ToolRequest) error {
	switch req.AccessLevel {
	case models.RoleBasic, models.RoleTool, models.RoleMaster:
	default:
		return ErrToolAccessLevel
	}

	link := strings.TrimSpace(req.Link)
	html := strings.TrimSpace(req.CustomHTML)

	switch req.LinkType {
	case models.LinkTypeInternal, models.LinkTypeExternal:
		if link == "" || html != "" {
			return ErrToolPayload
		}
		tool.Link = &link
		tool.CustomHTML = nil
	case models.LinkTypeCustom:
		if html == "" || link != "" {
			return ErrToolPayload
		}
		tool.CustomHTML = &html
		tool.Link = nil
	default:
		return ErrToolLinkType
	}

	tool.Name = req.Name
	tool.Description = req.Description
	tool.Category = req.Category
	tool.AccessLevel = req.AccessLevel
	tool.LinkType = req.LinkType
	if cpfs := strings.TrimSpace(req.RestrictedCpfs); cpfs != "" {
		tool.RestrictedCpfs = &cpfs
	} else {
		tool.RestrictedCpfs = nil
	}
	return nil
}
