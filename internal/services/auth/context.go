package auth

import "context"

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

type Identity struct {
	UserID int64
	Role   string
}

// CanWrite is the single capability the moderation surface consumes: whether
// the operator may mutate advertisements.
func (i Identity) CanWrite() bool {
	switch i.Role {
	case RoleOwner, RoleModerator:
		return true
	}
	return false
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
