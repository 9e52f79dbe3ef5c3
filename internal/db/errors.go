package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

// classify turns a driver error into one of the typed outcomes in models.
// Errors that are already typed pass through unchanged.
func classify(op string, err error) error {
	if err == nil || models.IsDomain(err) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return &models.ValidationError{Field: constraintField(pqErr.Constraint), Reason: "already in use"}
		case "foreign_key_violation":
			return &models.ReferentialConflictError{Entity: strings.TrimSuffix(pqErr.Table, "s"), Referenced: pqErr.Constraint}
		case "numeric_value_out_of_range":
			return &models.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must not exceed %d", models.MaxQuantity)}
		case "check_violation", "not_null_violation":
			return &models.ValidationError{Field: constraintField(pqErr.Constraint), Reason: pqErr.Message}
		}
	}

	return &models.StorageError{Op: op, Err: err}
}

// isForeignKeyViolation reports whether a delete was blocked by a reference.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation"
}

func constraintField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "quantity"):
		return "quantity"
	case strings.Contains(constraint, "price"):
		return "price"
	case strings.Contains(constraint, "status"):
		return "status"
	case strings.Contains(constraint, "name"):
		return "name"
	}
	return constraint
}
