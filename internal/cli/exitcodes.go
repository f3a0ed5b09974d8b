package cli

import (
	"errors"

	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitAuth       = 3
	exitBackend    = 4
	exitConfig     = 5
	exitValidation = 6
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// ExitCode maps err to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}

	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		return exitValidation
	}

	switch httpclient.KindOf(err) {
	case httpclient.KindAuthRequired:
		return exitAuth
	case httpclient.KindConfiguration:
		return exitConfig
	case "":
		return exitFailure
	}
	return exitBackend
}
