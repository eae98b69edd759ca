package session

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a token string is empty.
	ErrEmptyInput = errors.New("session token is empty")

	// ErrMissingComponents is returned when a token string lacks its
	// required components (version and global LSN for vector tokens,
	// partition prefix and vector suffix for partition tokens).
	ErrMissingComponents = errors.New("session token is missing required components")

	// ErrTokensNotMergeable is returned by Merge when two tokens carry
	// the same version but track different region sets.
	ErrTokensNotMergeable = errors.New("tokens have the same version but different regions")
)

// Token field names used in InvalidFieldError.
const (
	FieldVersion   = "version"
	FieldGlobalLSN = "global LSN"
	FieldRegionID  = "region ID"
	FieldRegionLSN = "region LSN"
)

// InvalidFieldError reports a numeric token segment that is not a valid
// decimal integer or overflows its fixed-width range.
type InvalidFieldError struct {
	Field string // one of the Field* constants
	Value string // the offending segment text
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// MalformedRegionError reports a regional component that lacks the '='
// separator or has an empty key or value.
type MalformedRegionError struct {
	Component string
}

func (e *MalformedRegionError) Error() string {
	return fmt.Sprintf("malformed regional component: %q", e.Component)
}

// RegionMismatchError is returned by CanAdvanceTo when two equal-version
// tokens track different region sets and are therefore incomparable.
// Current and Other hold the formatted token texts for diagnostics.
type RegionMismatchError struct {
	Current string
	Other   string
}

func (e *RegionMismatchError) Error() string {
	return fmt.Sprintf("tokens track different regions: current=%q, other=%q", e.Current, e.Other)
}
