package catalog

import (
	"errors"
	"strings"
	"time"
)

type Modalidade string

const (
	ModalidadePresencial    Modalidade = "presencial"
	ModalidadeHibrida       Modalidade = "hibrida"
	ModalidadeEADSincrono   Modalidade = "ead-sincrono"
	ModalidadeEADAssincrono Modalidade = "ead-assincrono"
)

type TurmaStatus string

const (
	TurmaPlanejada         TurmaStatus = "planejada"
	TurmaInscricoesAbertas TurmaStatus = "inscricoes-abertas"
	TurmaEmAndamento       TurmaStatus = "em-andamento"
	TurmaConcluida         TurmaStatus = "concluida"
)

const DefaultMaxStudents = 30

// Turma is a scheduled cohort of a Trilha. EnrolledCount and ApprovedCount are derived.
type Turma struct {
	ID            string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TrilhaID      string      `gorm:"not null;column:trilha_id;index" json:"trilhaId" validate:"required"`
	Name          string      `gorm:"not null;column:name" json:"name" validate:"required,min=3"`
	Description   string      `gorm:"column:description" json:"description,omitempty"`
	Modalidade    Modalidade  `gorm:"not null;column:modalidade" json:"modalidade" validate:"required,oneof=presencial hibrida ead-sincrono ead-assincrono"`
	MentorID      string      `gorm:"column:mentor_id;index" json:"mentorId,omitempty"`
	Location      string      `gorm:"column:location" json:"location,omitempty"`
	Horario       string      `gorm:"column:horario" json:"horario,omitempty"`
	StartDate     string      `gorm:"not null;column:start_date" json:"startDate" validate:"required"`
	EndDate       string      `gorm:"not null;column:end_date" json:"endDate" validate:"required"`
	MaxStudents   int         `gorm:"not null;column:max_students" json:"maxStudents" validate:"gte=1"`
	Status        TurmaStatus `gorm:"not null;column:status;index" json:"status" validate:"required,oneof=planejada inscricoes-abertas em-andamento concluida"`
	EnrolledCount int         `gorm:"not null;default:0;column:enrolled_count" json:"enrolledCount"`
	ApprovedCount int         `gorm:"not null;default:0;column:approved_count" json:"approvedCount"`
	CreatedAt     time.Time   `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time   `gorm:"column:updated_at" json:"updatedAt"`
}

func (Turma) TableName() string { return "turmas" }

func (t *Turma) GetID() string   { return t.ID }
func (t *Turma) SetID(id string) { t.ID = id }

// ApplyDefaults fills the fields a new turma may omit.
func (t *Turma) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TurmaPlanejada
	}
	if t.MaxStudents == 0 {
		t.MaxStudents = DefaultMaxStudents
	}
}

// CheckRules enforces the cross-field rules that struct tags cannot express.
func (t *Turma) CheckRules() error {
	var errs []error
	if t.Modalidade != ModalidadeEADAssincrono && strings.TrimSpace(t.MentorID) == "" {
		errs = append(errs, errors.New("mentorId é obrigatório para esta modalidade"))
	}
	if (t.Modalidade == ModalidadePresencial || t.Modalidade == ModalidadeHibrida) && strings.TrimSpace(t.Location) == "" {
		errs = append(errs, errors.New("location é obrigatório para turmas presenciais ou híbridas"))
	}
	start, err := ParseDate(t.StartDate)
	if err != nil {
		errs = append(errs, errors.New("startDate inválida"))
	}
	end, err2 := ParseDate(t.EndDate)
	if err2 != nil {
		errs = append(errs, errors.New("endDate inválida"))
	}
	if err == nil && err2 == nil && !end.After(start) {
		errs = append(errs, errors.New("endDate deve ser posterior a startDate"))
	}
	return errors.Join(errs...)
}

// turmaMoves lists where a turma may go from each status. Reaching
// em-andamento also activates the approved inscriptions.
var turmaMoves = map[TurmaStatus][]TurmaStatus{
	TurmaPlanejada:         {TurmaInscricoesAbertas, TurmaEmAndamento},
	TurmaInscricoesAbertas: {TurmaPlanejada, TurmaEmAndamento},
	TurmaEmAndamento:       {TurmaConcluida},
}

// StatusSources lists the statuses from which a turma may move to target.
func StatusSources(target TurmaStatus) []string {
	var out []string
	for _, from := range []TurmaStatus{TurmaPlanejada, TurmaInscricoesAbertas, TurmaEmAndamento, TurmaConcluida} {
		for _, to := range turmaMoves[from] {
			if to == target {
				out = append(out, string(from))
			}
		}
	}
	return out
}

// OpenForEnrollment reports whether new inscriptions are accepted.
func (t *Turma) OpenForEnrollment() bool {
	return t.Status == TurmaInscricoesAbertas
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts plain dates as well as RFC3339 timestamps.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
