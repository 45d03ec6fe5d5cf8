package cli

import (
	"errors"

	"mentorship/internal/domain"
)

// Process exit codes by error kind.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitValidation   = 2
	ExitConflict     = 3
	ExitUnauthorized = 4
	ExitNotFound     = 5
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrValidation):
		return ExitValidation
	case errors.Is(err, domain.ErrConflict):
		return ExitConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return ExitUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	}
	return ExitFailure
}
