package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure of the pipeline wraps exactly one of these in a
// *StageError, so callers can branch with errors.Is.
var (
	ErrDataIntegrity        = errors.New("data integrity error")
	ErrDegenerateDesign     = errors.New("degenerate design error")
	ErrInsufficientFeatures = errors.New("insufficient features error")
	ErrEmptyClass           = errors.New("empty class error")
	ErrDegenerateVector     = errors.New("degenerate vector error")
	ErrDegenerateGroups     = errors.New("degenerate groups error")
)

// StageError records where a run failed and which entity (sample id, gene id,
// group name) caused it.
type StageError struct {
	Stage  string
	Entity string
	Kind   error
	Msg    string
}

func (e *StageError) Error() string {
	s := e.Stage + ": " + e.Kind.Error()
	if e.Entity != "" {
		s += " [" + e.Entity + "]"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *StageError) Unwrap() error { return e.Kind }

// Errorf builds a *StageError of the given kind.
func Errorf(stage, entity string, kind error, format string, args ...any) error {
	return &StageError{Stage: stage, Entity: entity, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Stage names used in StageError.
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageImpute    = "impute"
	StageSplit     = "split"
	StageFilter    = "filter"
	StageDiffExpr  = "diffexpr"
	StageSignature = "signature"
	StageTemplate  = "template"
	StageClassify  = "classify"
	StageSurvival  = "survival"
)
