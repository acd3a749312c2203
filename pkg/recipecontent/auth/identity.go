// Package auth provides the authorization collaborators for recipe image
// storage: request identities, bearer token verifiers and HTTP middleware.
package auth

import (
	"context"

	"github.com/tendant/recipe-content/pkg/recipecontent"
)

// Identity is the signed-in user attached to a request
type Identity struct {
	UID      string
	Email    string
	Provider string
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying id
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, if any
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}

// ContextProvider answers from the identity that middleware stored in the
// request context. A request is authenticated when it carries an identity
// with a non-empty UID.
type ContextProvider struct{}

var _ recipecontent.AuthorizationProvider = ContextProvider{}

func NewContextProvider() ContextProvider {
	return ContextProvider{}
}

func (ContextProvider) IsAuthenticated(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	return ok && id.UID != ""
}

func (ContextProvider) UserUID(ctx context.Context) string {
	if id, ok := FromContext(ctx); ok {
		return id.UID
	}
	return ""
}

// StaticProvider reports a fixed sign-in state regardless of context.
// Used by the CLI and in tests.
type StaticProvider struct {
	Authenticated bool
	UID           string
}

var _ recipecontent.AuthorizationProvider = StaticProvider{}

// Anonymous is a provider for a caller that is not signed in
var Anonymous = StaticProvider{}

// SignedIn returns a provider for the given user
func SignedIn(uid string) StaticProvider {
	return StaticProvider{Authenticated: true, UID: uid}
}

func (p StaticProvider) IsAuthenticated(context.Context) bool {
	return p.Authenticated
}

func (p StaticProvider) UserUID(context.Context) string {
	if !p.Authenticated {
		return ""
	}
	return p.UID
}
