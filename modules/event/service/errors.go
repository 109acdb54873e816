package service

import (
	"context"
	stdErrors "errors"

	"go-event-roster/core/errors"
	"go-event-roster/modules/event/repository"
)

// ToAppError maps a store or mutation error onto the error taxonomy. An
// AppError returned from inside a Mutate callback passes through unchanged.
func ToAppError(err error, message string) *errors.AppError {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}
	switch {
	case stdErrors.Is(err, repository.ErrEventNotFound):
		return errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	case stdErrors.Is(err, repository.ErrVersionConflict):
		return errors.NewAppError(errors.ErrConflict, "Event was modified concurrently, retry", err)
	case stdErrors.Is(err, context.DeadlineExceeded), stdErrors.Is(err, context.Canceled):
		return errors.NewAppError(errors.ErrTransient, message, err)
	default:
		return errors.NewAppError(errors.ErrInternalServer, message, err)
	}
}
