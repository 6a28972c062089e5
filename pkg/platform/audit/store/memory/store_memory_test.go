package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "activityboard/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Publish(ctx, audit.Event{Action: audit.EventActivitySignup, Activity: "Chess Club", Email: "a@x.edu"}))
	require.NoError(t, s.Publish(ctx, audit.Event{Action: audit.EventActivitySignup, Activity: "Gym Class", Email: "b@x.edu"}))
	require.NoError(t, s.Publish(ctx, audit.Event{Action: audit.EventActivityUnregistered, Activity: "Chess Club", Email: "a@x.edu"}))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	chess, err := s.ListByActivity(ctx, "Chess Club")
	require.NoError(t, err)
	require.Len(t, chess, 2)
	assert.Equal(t, audit.EventActivitySignup, chess[0].Action)
	assert.Equal(t, audit.EventActivityUnregistered, chess[1].Action)
	assert.Equal(t, audit.CategoryRoster, chess[1].Category)
}
