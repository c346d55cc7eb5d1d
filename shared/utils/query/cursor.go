package query

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxPageSize = 100

// CursorParams represents cursor pagination parameters. The cursor is the
// id of the last row of the previous page and is opaque to clients.
type CursorParams struct {
	Limit  int
	Cursor *uuid.UUID
}

// ParseCursorParams extracts limit and cursor from the query string.
// Limit is clamped to 1..100; a malformed cursor is ignored.
func ParseCursorParams(c *gin.Context, defaultLimit int) CursorParams {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	params := CursorParams{Limit: limit}
	if raw := c.Query("cursor"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			params.Cursor = &id
		}
	}
	return params
}

// ApplyCursor restricts q to rows strictly after the cursor row in
// (created_at DESC, id DESC) order. The cursor row's created_at is resolved
// in the same statement via a scalar subquery.
func ApplyCursor(q *gorm.DB, table string, cursor *uuid.UUID) *gorm.DB {
	if cursor == nil {
		return q
	}
	cond := fmt.Sprintf(
		"(%s.created_at, %s.id) < ((SELECT created_at FROM %s WHERE id = ?), ?)",
		table, table, table,
	)
	return q.Where(cond, *cursor, *cursor)
}

// OrderForCursor applies the ordering ApplyCursor pages through.
func OrderForCursor(q *gorm.DB, table string) *gorm.DB {
	return q.Order(fmt.Sprintf("%s.created_at DESC, %s.id DESC", table, table))
}

// TrimPage cuts a limit+1 result set down to one page. It returns the page
// and the next cursor (nil when the fetch did not overflow the limit).
func TrimPage[T any](items []T, limit int, id func(T) uuid.UUID) ([]T, *uuid.UUID) {
	if len(items) <= limit {
		return items, nil
	}
	page := items[:limit]
	next := id(page[limit-1])
	return page, &next
}
