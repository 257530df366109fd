package aggregates

import (
	"context"
	"time"

	"github.com/openacademy/trilhas-backend/internal/domain/catalog"
	"github.com/openacademy/trilhas-backend/internal/domain/certificate"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
)

var EnrollmentAggregateContract = Contract{
	Name:             "Enrollment.TurmaInscriptionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns seat allocation, inscription status progression, turma lifecycle and turma/trilha counters.",
}

// EnrollmentAggregate owns inscription invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodePreconditionFailed,
// CodeCapacityExceeded, CodeInvalidTransition, CodeRetryable, CodeInternal.
type EnrollmentAggregate interface {
	Aggregate

	// Enroll atomically checks capacity and inserts a pending inscription.
	Enroll(ctx context.Context, in EnrollInput) (EnrollResult, error)

	// Transition applies one status event and refreshes derived counters.
	Transition(ctx context.Context, in TransitionInput) (TransitionResult, error)

	// UpdateProgress records progress/attendance; reaching 100% progress completes the inscription.
	UpdateProgress(ctx context.Context, in UpdateProgressInput) (TransitionResult, error)

	// StartTurma moves a turma to em-andamento and activates its approved inscriptions.
	StartTurma(ctx context.Context, in StartTurmaInput) (StartTurmaResult, error)

	// SyncCounts recomputes enrolledCount/approvedCount for a turma and its trilha.
	SyncCounts(ctx context.Context, turmaID string) (Counts, error)

	// Remove hard-deletes an inscription and refreshes counters.
	Remove(ctx context.Context, inscriptionID string) (bool, error)

	// ReviseTurma saves an edited turma under the turma lifecycle. Entering
	// em-andamento activates approved inscriptions; a trilha change resyncs
	// both trilhas.
	ReviseTurma(ctx context.Context, in ReviseTurmaInput) (ReviseTurmaResult, error)

	// RemoveTurma deletes a turma holding no seats, with its released inscriptions.
	RemoveTurma(ctx context.Context, turmaID string) (bool, error)

	// RemoveTrilha deletes a trilha that has no turmas.
	RemoveTrilha(ctx context.Context, trilhaID string) (bool, error)
}

type EnrollInput struct {
	UserID   string
	TurmaID  string
	EnrollAt time.Time
}

type EnrollResult struct {
	Inscription *enrollment.TurmaInscription
	Counts      Counts
}

type TransitionInput struct {
	InscriptionID string
	Event         enrollment.Event
	ActorID       string
	Reason        string
	At            time.Time
}

type TransitionResult struct {
	Inscription *enrollment.TurmaInscription
	From        enrollment.Status
	Counts      Counts
	Certificate *certificate.Certificate
}

type UpdateProgressInput struct {
	InscriptionID string
	Progress      *int
	Attendance    *int
	ActorID       string
	At            time.Time
}

type StartTurmaInput struct {
	TurmaID string
	At      time.Time
}

type StartTurmaResult struct {
	TurmaID   string
	Activated []*enrollment.TurmaInscription
	Counts    Counts
}

type ReviseTurmaInput struct {
	// Turma is the full edited record; counters on it are ignored.
	Turma *catalog.Turma
	At    time.Time
}

type ReviseTurmaResult struct {
	Turma     *catalog.Turma
	From      catalog.TurmaStatus
	Activated []*enrollment.TurmaInscription
	Counts    Counts
	// Previous is set when the turma moved to another trilha.
	Previous *TrilhaCount
}

type TrilhaCount struct {
	TrilhaID      string `json:"trilhaId"`
	EnrolledCount int    `json:"enrolledCount"`
}

// Counts are the derived counters after a write.
type Counts struct {
	TurmaID             string `json:"turmaId"`
	TrilhaID            string `json:"trilhaId"`
	EnrolledCount       int    `json:"enrolledCount"`
	ApprovedCount       int    `json:"approvedCount"`
	TrilhaEnrolledCount int    `json:"trilhaEnrolledCount"`
}
