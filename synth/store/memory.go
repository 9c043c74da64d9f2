// Package store provides RunStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shelf-engine/synth"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	runs      map[synth.RunID]synth.Run
	artifacts map[synth.RunID][]synth.Artifact
}

func NewMemory() *Memory {
	return &Memory{
		runs:      make(map[synth.RunID]synth.Run),
		artifacts: make(map[synth.RunID][]synth.Artifact),
	}
}

// SaveRun stores the run and a private copy of its artifacts. Append-only.
func (m *Memory) SaveRun(_ context.Context, run synth.Run, artifacts []synth.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return synth.ErrDuplicateRun
	}

	stored := make([]synth.Artifact, len(artifacts))
	for i, a := range artifacts {
		content := make([]byte, len(a.Content))
		copy(content, a.Content)
		stored[i] = synth.Artifact{Name: a.Name, Content: content}
	}

	m.runs[run.ID] = run
	m.artifacts[run.ID] = stored
	return nil
}

func (m *Memory) GetRun(_ context.Context, id synth.RunID) (*synth.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, synth.ErrRunNotFound
	}
	return &run, nil
}

func (m *Memory) ListRuns(_ context.Context) ([]synth.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]synth.Run, 0, len(m.runs))
	for _, r := range m.runs {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) ListArtifacts(_ context.Context, id synth.RunID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	arts, ok := m.artifacts[id]
	if !ok {
		return nil, synth.ErrRunNotFound
	}
	names := make([]string, len(arts))
	for i, a := range arts {
		names[i] = a.Name
	}
	return names, nil
}

func (m *Memory) GetArtifact(_ context.Context, id synth.RunID, name string) (*synth.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	arts, ok := m.artifacts[id]
	if !ok {
		return nil, synth.ErrRunNotFound
	}
	for _, a := range arts {
		if a.Name == name {
			content := make([]byte, len(a.Content))
			copy(content, a.Content)
			return &synth.Artifact{Name: a.Name, Content: content}, nil
		}
	}
	return nil, synth.ErrArtifactNotFound
}
