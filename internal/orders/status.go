package orders

import (
	"fmt"
	"strings"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
)

// Status is the lifecycle state of an order.
type Status string

// Order statuses
const (
	StatusPending   Status = "PENDING"
	StatusInProcess Status = "IN_PROCESS"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
)

// statusNone is the source state of a newly created order.
const statusNone Status = ""

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProcess, StatusFulfilled, StatusCancelled}

var labels = map[Status]string{
	StatusPending:   "Pendiente",
	StatusInProcess: "En Proceso",
	StatusFulfilled: "Completado",
	StatusCancelled: "Cancelado",
}

// Label is the name shown to distributor staff.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// ParseStatus accepts the canonical value or the staff label, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	for _, s := range Statuses {
		if strings.EqualFold(raw, string(s)) || strings.EqualFold(raw, s.Label()) {
			return s, nil
		}
	}
	return "", apperrors.Invalid("status", fmt.Sprintf("unknown status %q", raw))
}

// Effect is the side effect a transition has on product stock.
type Effect int

const (
	EffectNone Effect = iota
	// EffectDecrementStock removes every line item quantity from its product's stock.
	EffectDecrementStock
)

// transitions is the complete status graph. Any status may move to any other;
// only entering FULFILLED from a different state touches stock. Leaving
// FULFILLED never restores stock.
var transitions = map[Status]map[Status]Effect{
	statusNone: {
		StatusPending:   EffectNone,
		StatusInProcess: EffectNone,
		StatusFulfilled: EffectDecrementStock,
		StatusCancelled: EffectNone,
	},
	StatusPending: {
		StatusPending:   EffectNone,
		StatusInProcess: EffectNone,
		StatusFulfilled: EffectDecrementStock,
		StatusCancelled: EffectNone,
	},
	StatusInProcess: {
		StatusPending:   EffectNone,
		StatusInProcess: EffectNone,
		StatusFulfilled: EffectDecrementStock,
		StatusCancelled: EffectNone,
	},
	StatusFulfilled: {
		StatusPending:   EffectNone,
		StatusInProcess: EffectNone,
		StatusFulfilled: EffectNone,
		StatusCancelled: EffectNone,
	},
	StatusCancelled: {
		StatusPending:   EffectNone,
		StatusInProcess: EffectNone,
		StatusFulfilled: EffectDecrementStock,
		StatusCancelled: EffectNone,
	},
}

// ErrTransitionNotAllowed is returned for a pair missing from the status graph.
var ErrTransitionNotAllowed = fmt.Errorf("%w: status transition not allowed", apperrors.ErrValidation)

// Transition looks up the effect of moving from -> to.
func Transition(from, to Status) (Effect, error) {
	if !to.Valid() {
		return EffectNone, apperrors.Invalid("status", fmt.Sprintf("unknown status %q", to))
	}
	row, ok := transitions[from]
	if !ok {
		return EffectNone, fmt.Errorf("from %q: %w", from, ErrTransitionNotAllowed)
	}
	effect, ok := row[to]
	if !ok {
		return EffectNone, fmt.Errorf("%s -> %s: %w", from, to, ErrTransitionNotAllowed)
	}
	return effect, nil
}

// CreationEffect is the effect of creating an order directly in status to.
func CreationEffect(to Status) (Effect, error) {
	return Transition(statusNone, to)
}
