package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition se devuelve ante un evento que el estado actual no admite.
var ErrInvalidTransition = errors.New("invalid position transition")

// PositionState es el ciclo de vida de una posición gestionada.
type PositionState string

const (
	PositionOpen          PositionState = "OPEN"
	PositionTriggered     PositionState = "TRIGGERED"
	PositionExitSubmitted PositionState = "EXIT_SUBMITTED"
	PositionClosed        PositionState = "CLOSED"
)

// PositionEvent dispara transiciones de PositionState.
type PositionEvent string

const (
	EventExitTriggered PositionEvent = "exit_triggered"
	EventExitSubmitted PositionEvent = "exit_submitted"
	EventSubmitFailed  PositionEvent = "submit_failed"
	EventExitFilled    PositionEvent = "exit_filled"
)

// Next aplica el evento:
//
//	OPEN --triggered--> TRIGGERED --submitted--> EXIT_SUBMITTED --filled--> CLOSED
//	TRIGGERED | EXIT_SUBMITTED --submit_failed--> OPEN (se reintenta el próximo ciclo)
func (s PositionState) Next(ev PositionEvent) (PositionState, error) {
	switch {
	case s == PositionOpen && ev == EventExitTriggered:
		return PositionTriggered, nil
	case s == PositionTriggered && ev == EventExitSubmitted:
		return PositionExitSubmitted, nil
	case (s == PositionTriggered || s == PositionExitSubmitted) && ev == EventSubmitFailed:
		return PositionOpen, nil
	case s == PositionExitSubmitted && ev == EventExitFilled:
		return PositionClosed, nil
	}
	return s, fmt.Errorf("domain.PositionState.Next: %s on %s: %w", ev, s, ErrInvalidTransition)
}

// Terminal indica si la posición ya no admite eventos.
func (s PositionState) Terminal() bool {
	return s == PositionClosed
}
