package repos

import (
	"time"

	"gorm.io/gorm"

	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

type TrilhaStatsRow struct {
	TrilhaID            string `json:"trilhaId"`
	Title               string `json:"title"`
	MentorID            string `json:"mentorId,omitempty"`
	TotalTurmas         int    `json:"totalTurmas"`
	TurmasEmAndamento   int    `json:"turmasEmAndamento"`
	PendingInscriptions int    `json:"pendingInscriptions"`
	EnrolledStudents    int    `json:"enrolledStudents"`
}

type InscriptionLogRow struct {
	InscriptionID   string            `json:"inscriptionId"`
	Status          enrollment.Status `json:"status"`
	InscriptionDate time.Time         `json:"inscriptionDate"`
	UserID          string            `json:"userId"`
	UserName        string            `json:"userName"`
	TurmaID         string            `json:"turmaId"`
	TurmaName       string            `json:"turmaName"`
	TrilhaID        string            `json:"trilhaId"`
	TrilhaTitle     string            `json:"trilhaTitle"`
}

// StatsRepo runs the reporting aggregates in SQL instead of loading whole collections.
type StatsRepo interface {
	CountTable(dbc dbctx.Context, model any) (int64, error)
	CountInscriptionsByStatus(dbc dbctx.Context) (map[enrollment.Status]int, error)
	CountUsersByRole(dbc dbctx.Context) (map[string]int, error)
	TrilhaStats(dbc dbctx.Context, mentorID string) ([]TrilhaStatsRow, error)
	InscriptionLog(dbc dbctx.Context, since, until time.Time, limit int) ([]InscriptionLogRow, error)
}

type statsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatsRepo(db *gorm.DB, baseLog *logger.Logger) StatsRepo {
	return &statsRepo{db: db, log: baseLog.With("repo", "StatsRepo")}
}

func (r *statsRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Context())
}

func (r *statsRepo) CountTable(dbc dbctx.Context, model any) (int64, error) {
	var n int64
	err := r.tx(dbc).Model(model).Count(&n).Error
	return n, err
}

func (r *statsRepo) CountInscriptionsByStatus(dbc dbctx.Context) (map[enrollment.Status]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	if err := r.tx(dbc).Model(&types.TurmaInscription{}).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[enrollment.Status]int{}
	for _, row := range rows {
		out[enrollment.Status(row.Status)] = row.N
	}
	return out, nil
}

func (r *statsRepo) CountUsersByRole(dbc dbctx.Context) (map[string]int, error) {
	var rows []struct {
		Role string
		N    int
	}
	if err := r.tx(dbc).Model(&types.User{}).Select("role, COUNT(*) AS n").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

// TrilhaStats aggregates per trilha. A non-empty mentorID limits the result to
// trilhas that mentor leads.
func (r *statsRepo) TrilhaStats(dbc dbctx.Context, mentorID string) ([]TrilhaStatsRow, error) {
	var trilhas []*types.Trilha
	q := r.tx(dbc).Model(&types.Trilha{})
	if mentorID != "" {
		q = q.Where("mentor_id = ?", mentorID)
	}
	if err := q.Scopes(InsertionOrder).Find(&trilhas).Error; err != nil {
		return nil, err
	}
	if len(trilhas) == 0 {
		return []TrilhaStatsRow{}, nil
	}

	var turmaRows []struct {
		TrilhaID string
		Total    int
		Running  int
	}
	if err := r.tx(dbc).Model(&types.Turma{}).
		Select("trilha_id, COUNT(*) AS total, SUM(CASE WHEN status IN ? THEN 1 ELSE 0 END) AS running",
			[]string{string(catalog.TurmaEmAndamento), string(catalog.TurmaInscricoesAbertas)}).
		Group("trilha_id").
		Scan(&turmaRows).Error; err != nil {
		return nil, err
	}

	var inscRows []struct {
		TrilhaID string
		Pending  int
		Students int
	}
	if err := r.tx(dbc).Model(&types.TurmaInscription{}).
		Joins("JOIN turmas ON turmas.id = turma_inscriptions.turma_id").
		Select("turmas.trilha_id AS trilha_id, "+
			"SUM(CASE WHEN turma_inscriptions.status = ? THEN 1 ELSE 0 END) AS pending, "+
			"COUNT(DISTINCT CASE WHEN turma_inscriptions.status IN ? THEN turma_inscriptions.user_id END) AS students",
			string(enrollment.StatusPending), enrollment.SeatStatusStrings()).
		Group("turmas.trilha_id").
		Scan(&inscRows).Error; err != nil {
		return nil, err
	}

	byTrilha := make(map[string]*TrilhaStatsRow, len(trilhas))
	out := make([]TrilhaStatsRow, 0, len(trilhas))
	for _, t := range trilhas {
		out = append(out, TrilhaStatsRow{TrilhaID: t.ID, Title: t.Title, MentorID: t.MentorID})
	}
	for i := range out {
		byTrilha[out[i].TrilhaID] = &out[i]
	}
	for _, row := range turmaRows {
		if s, ok := byTrilha[row.TrilhaID]; ok {
			s.TotalTurmas = row.Total
			s.TurmasEmAndamento = row.Running
		}
	}
	for _, row := range inscRows {
		if s, ok := byTrilha[row.TrilhaID]; ok {
			s.PendingInscriptions = row.Pending
			s.EnrolledStudents = row.Students
		}
	}
	return out, nil
}

// InscriptionLog lists inscriptions created in [since, until), newest first.
// Zero bounds are open.
func (r *statsRepo) InscriptionLog(dbc dbctx.Context, since, until time.Time, limit int) ([]InscriptionLogRow, error) {
	q := r.tx(dbc).Model(&types.TurmaInscription{}).
		Select("turma_inscriptions.id AS inscription_id, turma_inscriptions.status AS status, " +
			"turma_inscriptions.inscription_date AS inscription_date, " +
			"turma_inscriptions.user_id AS user_id, users.name AS user_name, " +
			"turma_inscriptions.turma_id AS turma_id, turmas.name AS turma_name, " +
			"turmas.trilha_id AS trilha_id, trilhas.title AS trilha_title").
		Joins("LEFT JOIN users ON users.id = turma_inscriptions.user_id").
		Joins("LEFT JOIN turmas ON turmas.id = turma_inscriptions.turma_id").
		Joins("LEFT JOIN trilhas ON trilhas.id = turmas.trilha_id")
	if !since.IsZero() {
		q = q.Where("turma_inscriptions.inscription_date >= ?", since)
	}
	if !until.IsZero() {
		q = q.Where("turma_inscriptions.inscription_date < ?", until)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []InscriptionLogRow
	if err := q.Order("turma_inscriptions.inscription_date desc").Order("turma_inscriptions.id desc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
