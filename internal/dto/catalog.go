package dto

import (
	"github.com/agrimart/storefront/internal/model"
	"github.com/agrimart/storefront/pkg/paging"
)

// ListQuery is the validated part of a catalog listing query. Every other
// query parameter is treated as a filter.
type ListQuery struct {
	Page     int    `form:"page" validate:"min=0"`
	Size     int    `form:"size" validate:"omitempty,min=1,max=100"`
	Lang     string `form:"lang" validate:"omitempty,oneof=en ne"`
	Search   string `form:"search" validate:"max=200"`
	Category string `form:"category" validate:"max=100"`
}

// Cursor converts the query into a paging cursor. Size 0 means the
// resource default.
func (q ListQuery) Cursor() paging.Cursor {
	return paging.Cursor{Index: q.Page, Size: q.Size}
}

type PageResponse struct {
	Resource      string       `json:"resource"`
	Content       []model.Item `json:"content"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalPages    int          `json:"total_pages"`
	TotalElements int64        `json:"total_elements"`
	HasMore       bool         `json:"has_more"`
}

type ResourceResponse struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	DefaultSize    int      `json:"default_size"`
	AllowedFilters []string `json:"allowed_filters"`
	Description    string   `json:"description,omitempty"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type InvalidateResponse struct {
	Resource string `json:"resource"`
	Removed  int    `json:"removed"`
	Message  string `json:"message"`
}
