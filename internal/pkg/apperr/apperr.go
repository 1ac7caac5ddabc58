package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Code classifies failures surfaced by the core services.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTransactionAborted Code = "transaction_aborted"
	CodeLinkIntegrity      Code = "link_integrity"
	CodeInternal           Code = "internal"
)

// Error is the canonical error wrapper shared by services and handlers.
type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an error with explicit code and operation.
func New(code Code, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func NotFound(op, message string) error {
	return New(CodeNotFound, op, message, nil)
}

func Validation(op, message string) error {
	return New(CodeValidation, op, message, nil)
}

// Wrap annotates err with a code, keeping it reachable through errors.Is/As.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(code, op, err.Error(), err)
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return CodeInternal
	}
	return appErr.Code
}

// MapError maps gorm/driver failures into coded errors. Already coded errors pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(CodeConflict, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Wrap(CodeTransactionAborted, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return Wrap(CodeConflict, op, err) // unique_violation
		case "40001", "40P01", "55P03":
			return Wrap(CodeTransactionAborted, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return Wrap(CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"), strings.Contains(msg, "database is locked"):
		return Wrap(CodeTransactionAborted, op, err)
	default:
		return Wrap(CodeInternal, op, err)
	}
}
