package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fluentblocks/fluentblocks-api/internal/planner"
)

// MemoryRoadmapRepository is a map-backed repository for local development
// and tests. Each instance is isolated; roadmaps are stored as flat
// snapshots, so a saved aggregate and a loaded one never share memory.
type MemoryRoadmapRepository struct {
	mu       sync.RWMutex
	roadmaps map[uuid.UUID]planner.RoadmapData
}

func NewMemoryRoadmapRepository() *MemoryRoadmapRepository {
	return &MemoryRoadmapRepository{
		roadmaps: make(map[uuid.UUID]planner.RoadmapData),
	}
}

func (r *MemoryRoadmapRepository) FindByID(ctx context.Context, id uuid.UUID) (*planner.Roadmap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.roadmaps[id]
	if !ok {
		return nil, planner.ErrRoadmapNotFound
	}
	return planner.RoadmapFromData(data), nil
}

func (r *MemoryRoadmapRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*planner.Roadmap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, data := range r.roadmaps {
		if data.UserID == userID && data.ConversationState != planner.StateCompleted {
			return planner.RoadmapFromData(data), nil
		}
	}
	return nil, planner.ErrRoadmapNotFound
}

func (r *MemoryRoadmapRepository) Save(ctx context.Context, roadmap *planner.Roadmap) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roadmaps[roadmap.ID()] = roadmap.ToData()
	return nil
}
