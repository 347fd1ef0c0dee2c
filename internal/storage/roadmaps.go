package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fluentblocks/fluentblocks-api/internal/models"
	"github.com/fluentblocks/fluentblocks-api/internal/planner"
)

// GormRoadmapRepository persists roadmap aggregates as a roadmap row plus its
// milestone rows, ordered by position.
type GormRoadmapRepository struct {
	db *gorm.DB
}

func NewGormRoadmapRepository(db *gorm.DB) *GormRoadmapRepository {
	return &GormRoadmapRepository{db: db}
}

func (r *GormRoadmapRepository) FindByID(ctx context.Context, id uuid.UUID) (*planner.Roadmap, error) {
	var record models.RoadmapRecord
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, planner.ErrRoadmapNotFound
		}
		return nil, fmt.Errorf("find roadmap: %w", err)
	}
	return toDomain(record), nil
}

func (r *GormRoadmapRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*planner.Roadmap, error) {
	var record models.RoadmapRecord
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ? AND conversation_state <> ?", userID, string(planner.StateCompleted)).
		Order("updated_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, planner.ErrRoadmapNotFound
		}
		return nil, fmt.Errorf("find active roadmap: %w", err)
	}
	return toDomain(record), nil
}

// Save upserts the roadmap row and replaces its milestone rows wholesale.
// A regenerated proposal discards the old plan entirely, so diffing rows
// would buy nothing. Last write wins; there is no version check.
func (r *GormRoadmapRepository) Save(ctx context.Context, roadmap *planner.Roadmap) error {
	data := roadmap.ToData()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.RoadmapRecord
		err := tx.First(&existing, "id = ?", data.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := models.RoadmapRecord{
				ID:                data.ID,
				UserID:            data.UserID,
				GoalText:          data.Goal.Text,
				ConversationState: string(data.ConversationState),
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("create roadmap row: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load roadmap row: %w", err)
		default:
			updates := map[string]interface{}{
				"goal_text":          data.Goal.Text,
				"conversation_state": string(data.ConversationState),
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update roadmap row: %w", err)
			}
		}

		if err := tx.Unscoped().
			Where("roadmap_id = ?", data.ID).
			Delete(&models.MilestoneRecord{}).Error; err != nil {
			return fmt.Errorf("clear milestone rows: %w", err)
		}

		for i, m := range data.Milestones {
			row := models.MilestoneRecord{
				ID:          m.ID,
				RoadmapID:   data.ID,
				Position:    i,
				Title:       m.Title,
				Description: m.Description,
				Status:      string(m.Status),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("save milestone row: %w", err)
			}
		}
		return nil
	})
}

func toDomain(record models.RoadmapRecord) *planner.Roadmap {
	milestones := make([]planner.MilestoneData, len(record.Milestones))
	for i, m := range record.Milestones {
		milestones[i] = planner.MilestoneData{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Status:      planner.MilestoneStatus(m.Status),
		}
	}
	return planner.RoadmapFromData(planner.RoadmapData{
		ID:                record.ID,
		UserID:            record.UserID,
		Goal:              planner.GoalData{Text: record.GoalText},
		Milestones:        milestones,
		ConversationState: planner.ConversationState(record.ConversationState),
	})
}
