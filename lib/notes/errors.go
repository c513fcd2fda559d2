package notes

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized = errors.New("you must be signed in")
	// ErrNotFound covers notes that exist but belong to someone else.
	ErrNotFound = errors.New("note not found")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// StorageError hides a backend failure. Only Op is meant for the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Public is the message safe to show a caller.
func (e *StorageError) Public() string {
	return "Failed to " + e.Op
}

// Describe renders err for a caller without leaking storage internals.
func Describe(err error) string {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr.Public()
	}
	return err.Error()
}

// classify turns a store error into the service taxonomy. Validation errors raised inside a
// mutator pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	}
	logrus.WithField("op", op).Error(errors.Wrap(err, "note store"))
	return &StorageError{Op: op, Err: err}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "note", Reason: err.Error()}
	}

	fe := fieldErrs[0]
	reason := "is invalid"
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "min":
		reason = "cannot be empty"
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return &ValidationError{Field: fe.Field(), Reason: reason}
}
