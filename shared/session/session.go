// Package session carries the authenticated actor through a request explicitly,
// so services receive who is acting as a parameter instead of reading globals.
package session

import (
	"context"
)

type contextKey struct{}

// Actor is the authenticated principal behind a request.
type Actor struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	TokenID string `json:"token_id"`
}

func (a Actor) IsZero() bool {
	return a.UserID == ""
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// FromContext extracts the actor set by the auth middleware.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	if !ok || actor.IsZero() {
		return Actor{}, false
	}

	return actor, true
}
