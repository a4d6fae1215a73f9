package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalFromSession(t *testing.T) {
	assert.Equal(t, Guest, PrincipalFromSession(nil))

	sess := &Session{}
	assert.Equal(t, Guest, PrincipalFromSession(sess))

	for _, raw := range []string{"abc", "-4", "0", " "} {
		sess.SetUser(raw)
		assert.Equal(t, Guest, PrincipalFromSession(sess), raw)
	}

	sess.SetUser(" 42 ")
	principal := PrincipalFromSession(sess)
	assert.Equal(t, CustomerID(42), principal)
	assert.Equal(t, int64(42), principal.GetID())
	assert.False(t, principal.IsGuest())
	assert.True(t, Guest.IsGuest())
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	actor, ok := ActorFromContext(ContextWithActor(context.Background(), CustomerID(9)))
	assert.True(t, ok)
	assert.Equal(t, CustomerID(9), actor)

	_, ok = ActorFromContext(ContextWithActor(context.Background(), Guest))
	assert.False(t, ok)
}
