package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// Roles issued by the central console SSO. Everything else is read-only.
const (
	RoleOwner     = "OWNER"
	RoleModerator = "MODERATOR"
	RoleViewer    = "VIEWER"
)

type AccessClaims struct {
	UserID    int64
	Role      string
	ExpiresAt time.Time
}
