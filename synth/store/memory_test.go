package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shelf-engine/synth"
)

func TestMemory_SnapshotsAreImmutable(t *testing.T) {
	// GIVEN: A stored run whose artifact buffer the caller keeps
	m := NewMemory()
	ctx := context.Background()
	content := []byte("Key,Value\n")
	run := synth.Run{ID: "r1", CreatedAt: time.Now()}
	require.NoError(t, m.SaveRun(ctx, run, []synth.Artifact{{Name: "env_scalars.csv", Content: content}}))

	// WHEN: The caller mutates its buffer and the returned copy
	content[0] = 'X'
	a, err := m.GetArtifact(ctx, "r1", "env_scalars.csv")
	require.NoError(t, err)
	a.Content[1] = 'Y'

	// THEN: The stored artifact is unchanged
	again, err := m.GetArtifact(ctx, "r1", "env_scalars.csv")
	require.NoError(t, err)
	assert.Equal(t, "Key,Value\n", string(again.Content))

	assert.ErrorIs(t, m.SaveRun(ctx, run, nil), synth.ErrDuplicateRun)
}

func TestMemory_Lookups(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SaveRun(ctx, synth.Run{ID: "old", CreatedAt: base}, nil))
	require.NoError(t, m.SaveRun(ctx, synth.Run{ID: "new", CreatedAt: base.Add(time.Minute)}, []synth.Artifact{{Name: "a.csv"}}))

	runs, err := m.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, synth.RunID("new"), runs[0].ID)

	names, err := m.ListArtifacts(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv"}, names)

	_, err = m.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, synth.ErrRunNotFound)
	_, err = m.GetArtifact(ctx, "new", "b.csv")
	assert.ErrorIs(t, err, synth.ErrArtifactNotFound)
}
