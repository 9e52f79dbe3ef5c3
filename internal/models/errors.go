package models

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every typed error below matches exactly one.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReferentialConflict = errors.New("referential conflict")
	ErrStorage             = errors.New("storage failure")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError reports the stock seen at reservation time.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ReferentialConflictError is returned when deleting a row that other rows
// still reference.
type ReferentialConflictError struct {
	Entity     string
	ID         int64
	Referenced string
	Count      int
}

func (e *ReferentialConflictError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("%s %d is still referenced by %d %s", e.Entity, e.ID, e.Count, e.Referenced)
	}
	return fmt.Sprintf("%s %d is still referenced by %s", e.Entity, e.ID, e.Referenced)
}

func (e *ReferentialConflictError) Is(target error) bool { return target == ErrReferentialConflict }

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// IsDomain reports whether err is one of the typed outcomes above.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrReferentialConflict) ||
		errors.Is(err, ErrStorage)
}
