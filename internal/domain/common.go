package domain

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPageSize is the page size applied when the caller gives none.
	DefaultPageSize = 20
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 100
)

// OrderDirection is a sort direction.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// PaginationParams carries cursor-based pagination parameters.
type PaginationParams struct {
	PageSize       int32
	PageToken      string
	OrderBy        string
	OrderDirection OrderDirection
}

// PageCursor is the opaque cursor for cursor-based pagination.
type PageCursor struct {
	LastID        uuid.UUID `json:"id"`
	LastCreatedAt time.Time `json:"ca"`
}

// Encode serializes the cursor into a base64 token.
func (c *PageCursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodePageCursor parses a base64 token back into a cursor.
func DecodePageCursor(token string) (*PageCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var cursor PageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}

// PaginatedResult is one page of a paginated listing.
type PaginatedResult[T any] struct {
	Items         []T
	NextPageToken string
	TotalCount    int32
	HasMore       bool
}

// NormalizePageSize clamps a requested page size into the allowed range.
func NormalizePageSize(size int32) int32 {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// NormalizeOrderDirection defaults unknown directions to descending.
func NormalizeOrderDirection(dir string) OrderDirection {
	if dir == "asc" || dir == "ASC" {
		return OrderAsc
	}
	return OrderDesc
}
