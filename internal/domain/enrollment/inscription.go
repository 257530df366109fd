package enrollment

import "time"

// TurmaInscription links one user to one turma.
type TurmaInscription struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string     `gorm:"not null;column:user_id;index" json:"userId"`
	TurmaID         string     `gorm:"not null;column:turma_id;index" json:"turmaId"`
	Status          Status     `gorm:"not null;column:status;index" json:"status"`
	InscriptionDate time.Time  `gorm:"column:inscription_date" json:"inscriptionDate"`
	Progress        int        `gorm:"not null;default:0;column:progress" json:"progress"`
	Attendance      int        `gorm:"not null;default:0;column:attendance" json:"attendance"`
	ApprovedAt      *time.Time `gorm:"column:approved_at" json:"approvedAt,omitempty"`
	ApprovedBy      string     `gorm:"column:approved_by" json:"approvedBy,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejectedAt,omitempty"`
	RejectedBy      string     `gorm:"column:rejected_by" json:"rejectedBy,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`
	ActivatedAt     *time.Time `gorm:"column:activated_at" json:"activatedAt,omitempty"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CancelledBy     string     `gorm:"column:cancelled_by" json:"cancelledBy,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (TurmaInscription) TableName() string { return "turma_inscriptions" }

func (i *TurmaInscription) GetID() string   { return i.ID }
func (i *TurmaInscription) SetID(id string) { i.ID = id }

// Inscription is the deprecated trilha-level enrollment kept for old clients.
type Inscription struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string    `gorm:"column:user_id;index" json:"userId"`
	TrilhaID  string    `gorm:"column:trilha_id;index" json:"trilhaId"`
	Status    string    `gorm:"column:status" json:"status"`
	Progress  int       `gorm:"column:progress" json:"progress"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Inscription) TableName() string { return "inscriptions" }

func (i *Inscription) GetID() string   { return i.ID }
func (i *Inscription) SetID(id string) { i.ID = id }
