package dto

import (
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
)

type ToolRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	AccessLevel    string `json:"access_level"`
	LinkType       string `json:"link_type"`
	Link           string `json:"link,omitempty"`
	CustomHTML     string `json:"custom_html,omitempty"`
	RestrictedCpfs string `json:"restricted_cpfs,omitempty"`
}

// ToolResponse is what non-admin clients see. Locked entries keep their
// metadata for the catalog but never carry the link or custom HTML payload.
type ToolResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	AccessLevel string    `json:"access_level"`
	LinkType    string    `json:"link_type"`
	Link        *string   `json:"link,omitempty"`
	CustomHTML  *string   `json:"custom_html,omitempty"`
	Locked      bool      `json:"locked"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewToolResponse(tool *models.Tool) ToolResponse {
	return ToolResponse{
		ID:          tool.ID,
		Name:        tool.Name,
		Description: tool.Description,
		Category:    tool.Category,
		AccessLevel: tool.AccessLevel,
		LinkType:    tool.LinkType,
		Link:        tool.Link,
		CustomHTML:  tool.CustomHTML,
		CreatedAt:   tool.CreatedAt,
	}
}

func NewLockedToolResponse(tool *models.Tool) ToolResponse {
	resp := NewToolResponse(tool)
	resp.Link = nil
	resp.CustomHTML = nil
	resp.Locked = true
	return resp
}
