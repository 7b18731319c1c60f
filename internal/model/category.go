package model

import "time"

// Category represents a transaction category. Categories with a nil UserID
// are system-provided and cannot be edited or deleted.
type Category struct {
	CreatedAt time.Time
	Name      string
	Color     string
	Icon      string
	UserID    *string
	ID        int
}

// IsSystem reports whether the category is system-provided.
func (c *Category) IsSystem() bool {
	return c.UserID == nil
}
