package ledger

import (
	"fmt"
	"strings"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

// StatusPolicy decides whether an order may move from one status to another.
type StatusPolicy interface {
	Allow(from, to models.OrderStatus) error
}

// UnrestrictedPolicy permits any listed status from any other, including
// skipping or reversing steps.
type UnrestrictedPolicy struct{}

func (UnrestrictedPolicy) Allow(from, to models.OrderStatus) error {
	if !to.Valid() {
		return &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown order status %q", to)}
	}
	return nil
}

// MonotonicPolicy only moves forward along
// New → InProcessing → ReadyToShip → Shipped → Delivered, allows Cancelled
// from any non-terminal status, and leaves Delivered and Cancelled as they are.
type MonotonicPolicy struct{}

var mainLine = map[models.OrderStatus]int{
	models.StatusNew:          0,
	models.StatusInProcessing: 1,
	models.StatusReadyToShip:  2,
	models.StatusShipped:      3,
	models.StatusDelivered:    4,
}

func (MonotonicPolicy) Allow(from, to models.OrderStatus) error {
	if err := (UnrestrictedPolicy{}).Allow(from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if from.Terminal() {
		return refused(from, to, "order is already "+string(from))
	}
	if to == models.StatusCancelled {
		return nil
	}
	if mainLine[to] <= mainLine[from] {
		return refused(from, to, "status cannot move backwards")
	}
	return nil
}

func refused(from, to models.OrderStatus, reason string) error {
	return &models.ValidationError{
		Field:  "status",
		Reason: fmt.Sprintf("%s → %s refused: %s", from, to, reason),
	}
}

// PolicyByName maps a configuration value to a policy. Empty means
// unrestricted.
func PolicyByName(name string) (StatusPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unrestricted":
		return UnrestrictedPolicy{}, nil
	case "monotonic":
		return MonotonicPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown status policy %q", name)
}
