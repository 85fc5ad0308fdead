package admin

import (
	"github.com/syncdeck/syncdeck-backend/internal/users"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
)

// ListUsersParams filters the back-office account listing.
type ListUsersParams struct {
	Role   *enums.UserRole
	Limit  int
	Cursor string
}

// UserList is one page of accounts plus the cursor for the next page.
type UserList struct {
	Users      []users.UserDTO `json:"users"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// ResetPasswordResult carries the one-time temporary password.
type ResetPasswordResult struct {
	TempPassword string `json:"temp_password"`
}
