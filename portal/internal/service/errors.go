package service

import (
	"errors"

	"guest-portal/portal/internal/repository"
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return e.Msg
}

func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
