package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoadmapRecord is the persisted row for a goal-planner roadmap. Domain rules
// live in the planner package; this type only maps the aggregate to storage.
type RoadmapRecord struct {
	ID                uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID         `json:"userId" gorm:"type:uuid;index;not null"`
	GoalText          string            `json:"goalText"`
	ConversationState string            `json:"conversationState" gorm:"not null"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt    `json:"-" gorm:"index"`
	Milestones        []MilestoneRecord `json:"milestones,omitempty" gorm:"foreignKey:RoadmapID"`
}

func (r *RoadmapRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// MilestoneRecord is one persisted milestone. Position preserves the plan
// order the aggregate was saved with.
type MilestoneRecord struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	RoadmapID   uuid.UUID      `json:"roadmapId" gorm:"type:uuid;index;not null"`
	Position    int            `json:"position" gorm:"not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Status      string         `json:"status" gorm:"not null;default:'LOCKED'"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (m *MilestoneRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
