package service

import (
	"errors"
	"fmt"
	"time"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyExists      = errors.New("record already exists")
	ErrInvalidInterval    = errors.New("start must be before end")
	ErrScheduleConflict   = errors.New("reservation overlaps an existing booking on this machine")
	ErrInvalidDelay       = errors.New("delay must be a positive number of minutes")
	ErrReservationClosed  = errors.New("reservation is completed or cancelled")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrEntityReferenced   = errors.New("record is still referenced")
	ErrUnknownEntityKind  = model.ErrUnknownEntityKind
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrTransactionAborted = errors.New("transaction aborted")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user is not active")
)

// domainErrors pass through the coordinator untouched.
var domainErrors = []error{
	ErrValidation, ErrNotFound, ErrAlreadyExists, ErrInvalidInterval, ErrScheduleConflict,
	ErrInvalidDelay, ErrReservationClosed, ErrInsufficientStock, ErrInvalidTransition,
	ErrEntityReferenced, ErrUnknownEntityKind,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ScheduleConflictError names the reservation that blocks a booking.
type ScheduleConflictError struct {
	ReservationID uuid.UUID
	StartAt       time.Time
	EndAt         time.Time
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("%s: reservation %s [%s, %s)", ErrScheduleConflict, e.ReservationID,
		e.StartAt.Format(time.RFC3339), e.EndAt.Format(time.RFC3339))
}

func (e *ScheduleConflictError) Is(target error) bool {
	return target == ErrScheduleConflict
}

// validate runs struct validation and reports the first failure as ErrValidation.
func validate(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
}

func notFound(what string, key interface{}) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, what, key)
}
