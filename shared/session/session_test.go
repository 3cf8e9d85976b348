package session_test

import (
	"campusbook/shared/session"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Run("actor present", func(t *testing.T) {
		actor := session.Actor{UserID: "u-1", Email: "a@campus.edu", Role: "staff", TokenID: "t-1"}
		ctx := session.WithActor(context.Background(), actor)

		got, ok := session.FromContext(ctx)

		assert.True(t, ok)
		assert.Equal(t, actor, got)
	})

	t.Run("no actor", func(t *testing.T) {
		_, ok := session.FromContext(context.Background())

		assert.False(t, ok)
	})

	t.Run("empty actor is treated as missing", func(t *testing.T) {
		ctx := session.WithActor(context.Background(), session.Actor{})

		_, ok := session.FromContext(ctx)

		assert.False(t, ok)
	})
}
