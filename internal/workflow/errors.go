package workflow

import (
	"errors"

	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
)

// AppError переводит ошибки диалога в ошибки уровня приложения.
func AppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotOpen):
		return apperror.ErrDialogClosed
	case errors.Is(err, ErrInFlight):
		return apperror.ErrInProgress
	case errors.Is(err, ErrStale):
		return apperror.Wrap(err, apperror.ErrCodeConflict, "диалог был открыт заново")
	}
	return err
}
