package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
)

// Sentinels carried by errors built inside a write body. MapError turns them
// into aggregate codes once the transaction has returned.
var (
	ErrValidation = errors.New("aggregate validation")
	ErrInvariant  = errors.New("aggregate invariant violation")
	ErrConflict   = errors.New("aggregate conflict")
	ErrRetryable  = errors.New("aggregate retryable")
)

var sentinelCodes = []struct {
	sentinel error
	code     domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrInvariant, domainagg.CodeInvariantViolation},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
}

// SQLSTATEs from postgres that have a stable aggregate meaning.
var pgStateCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// Driver messages without a typed error, sqlite's in particular.
var (
	conflictFragments  = []string{"duplicate key", "already exists", "unique constraint failed"}
	retryableFragments = []string{"deadlock", "serialization", "database is locked", "timeout", "temporar"}
)

func tagged(sentinel error, msg string) error {
	return errors.Join(sentinel, errors.New(strings.TrimSpace(msg)))
}

func ValidationError(msg string) error { return tagged(ErrValidation, msg) }
func InvariantError(msg string) error  { return tagged(ErrInvariant, msg) }
func ConflictError(msg string) error   { return tagged(ErrConflict, msg) }

// RetryableError marks a failure the write loop should try again, such as a
// compare-and-set that lost to a concurrent request.
func RetryableError(msg string) error { return tagged(ErrRetryable, msg) }

// MapError gives every error leaving a write an aggregate code. Errors that
// already carry one pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var agg *domainagg.Error
	if errors.As(err, &agg) {
		return err
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.sentinel) {
			return wrapTagged(sc.code, op, err)
		}
	}
	switch {
	case errors.Is(err, enrollment.ErrInvalidTransition):
		return domainagg.Wrap(domainagg.CodeInvalidTransition, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domainagg.Wrap(domainagg.CodePreconditionFailed, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgStateCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return domainagg.Wrap(code, op, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, conflictFragments):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case containsAny(msg, retryableFragments):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	default:
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// wrapTagged keeps the sentinel in the chain but drops it from the message.
func wrapTagged(code domainagg.ErrorCode, op string, err error) error {
	msg := err.Error()
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts := make([]string, 0, 2)
		for _, e := range joined.Unwrap() {
			switch e {
			case ErrValidation, ErrInvariant, ErrConflict, ErrRetryable:
				continue
			}
			parts = append(parts, e.Error())
		}
		if len(parts) > 0 {
			msg = strings.Join(parts, "; ")
		}
	}
	return domainagg.NewError(code, op, msg, err)
}

// fail builds an aggregate error with a user-facing message.
func fail(code domainagg.ErrorCode, op, message string) error {
	return domainagg.NewError(code, op, message, nil)
}
