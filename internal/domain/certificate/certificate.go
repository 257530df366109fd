package certificate

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate is issued once per completed inscription and never modified.
// InscriptionID is unique when set; seeded legacy certificates leave it blank.
type Certificate struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID        string    `gorm:"not null;column:user_id;index" json:"userId"`
	TurmaID       string    `gorm:"column:turma_id;index" json:"turmaId,omitempty"`
	TrilhaID      string    `gorm:"column:trilha_id;index" json:"trilhaId,omitempty"`
	InscriptionID string    `gorm:"column:inscription_id;uniqueIndex:idx_certificates_inscription,where:inscription_id <> ''" json:"inscriptionId,omitempty"`
	Code          string    `gorm:"column:code;uniqueIndex" json:"code"`
	Hours         int       `gorm:"column:hours" json:"hours"`
	IssuedAt      time.Time `gorm:"column:issued_at" json:"issuedAt"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Certificate) TableName() string { return "certificates" }

func (c *Certificate) GetID() string   { return c.ID }
func (c *Certificate) SetID(id string) { c.ID = id }

// BeforeCreate stamps the verification code and issue time when absent.
func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(c.Code) == "" {
		c.Code = NewCode()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	return nil
}

// NewCode returns a short public verification code.
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
