package models

import (
	"fmt"
	"strings"
)

// OrderStatus is stored as text in orders.status.
type OrderStatus string

const (
	StatusNew          OrderStatus = "New"
	StatusInProcessing OrderStatus = "InProcessing"
	StatusReadyToShip  OrderStatus = "ReadyToShip"
	StatusShipped      OrderStatus = "Shipped"
	StatusDelivered    OrderStatus = "Delivered"
	StatusCancelled    OrderStatus = "Cancelled"
)

// OrderStatuses lists the vocabulary in business order.
var OrderStatuses = []OrderStatus{
	StatusNew,
	StatusInProcessing,
	StatusReadyToShip,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further business transition is expected.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ParseOrderStatus accepts the stored spelling as well as loose variants
// such as "in processing", "ready_to_ship" or "CANCELLED".
func ParseOrderStatus(raw string) (OrderStatus, error) {
	norm := normalizeStatus(raw)
	for _, known := range OrderStatuses {
		if normalizeStatus(string(known)) == norm {
			return known, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown order status %q", raw)}
}

func normalizeStatus(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
