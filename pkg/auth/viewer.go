package auth

import (
	"context"
	"slices"

	"degrees/domain/core/entities"
)

// Roles granting wider scopes.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Viewer is who a request acts for. The zero value is anonymous.
type Viewer struct {
	UserID string
	Roles  []string
	Scope  entities.Scope
}

// Anonymous sees public nodes only.
func Anonymous() Viewer {
	return Viewer{Scope: entities.PublicScope()}
}

// ViewerFromClaims maps token roles onto visibility tiers.
func ViewerFromClaims(c *Claims) Viewer {
	v := Viewer{UserID: c.UserID, Roles: c.Roles, Scope: entities.PublicScope()}
	switch {
	case c.HasRole(RoleAdmin):
		v.Scope = entities.FullScope()
	case c.HasRole(RoleMember):
		v.Scope = entities.MembersScope()
	}
	return v
}

func (v Viewer) IsAnonymous() bool { return v.UserID == "" }

func (v Viewer) IsAdmin() bool { return slices.Contains(v.Roles, RoleAdmin) }

type viewerKey struct{}

// WithViewer stores v in ctx.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFrom returns the viewer stored in ctx, or an anonymous one.
func ViewerFrom(ctx context.Context) Viewer {
	if v, ok := ctx.Value(viewerKey{}).(Viewer); ok {
		return v
	}
	return Anonymous()
}
