package catalog

import "time"

// Trilha is a learning track. EnrolledCount is maintained by the enrollment aggregate.
type Trilha struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title         string    `gorm:"not null;column:title" json:"title" validate:"required,min=3"`
	Description   string    `gorm:"column:description" json:"description"`
	MentorID      string    `gorm:"column:mentor_id;index" json:"mentorId,omitempty"`
	Duration      int       `gorm:"column:duration" json:"duration" validate:"gte=0"`
	Level         string    `gorm:"column:level" json:"level,omitempty"`
	Category      string    `gorm:"column:category;index" json:"category,omitempty"`
	Image         string    `gorm:"column:image" json:"image,omitempty"`
	EnrolledCount int       `gorm:"not null;default:0;column:enrolled_count" json:"enrolledCount"`
	Rating        float64   `gorm:"not null;default:0;column:rating" json:"rating" validate:"gte=0,lte=5"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Trilha) TableName() string { return "trilhas" }

func (t *Trilha) GetID() string   { return t.ID }
func (t *Trilha) SetID(id string) { t.ID = id }
