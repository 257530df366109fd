package aggregates

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
	if got := domainagg.MessageOf(err); got != "bad input" {
		t.Fatalf("message should drop the sentinel, got %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("sentinel should stay in the chain")
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_DriverErrors(t *testing.T) {
	cases := []struct {
		err  error
		want domainagg.ErrorCode
	}{
		{gorm.ErrDuplicatedKey, domainagg.CodeConflict},
		{gorm.ErrForeignKeyViolated, domainagg.CodePreconditionFailed},
		{errors.New("UNIQUE constraint failed: turma_inscriptions.user_id"), domainagg.CodeConflict},
		{errors.New("database is locked"), domainagg.CodeRetryable},
		{fmt.Errorf("approve: %w", enrollment.ErrInvalidTransition), domainagg.CodeInvalidTransition},
		{errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		if got := domainagg.CodeOf(MapError("op", tc.err)); got != tc.want {
			t.Fatalf("MapError(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}
