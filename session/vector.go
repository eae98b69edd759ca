// Package session implements session-consistency tracking for Bundoc Cloud
// clients: the vector session token algebra and the per-container and
// per-client stores that record replication progress observed per partition.
package session

import (
	"fmt"
	"math"
	"strings"
)

// LSN is a logical sequence number: a strictly increasing counter of
// replication progress at one replica set.
type LSN uint64

// RegionID names a geo-region. It is only a map key; there is no ordering.
type RegionID uint32

// VectorSessionToken records the replication progress of one partition as
// observed by the client: a global LSN plus zero or more per-region LSNs,
// gated by a protocol version.
//
// Wire format: "<version>#<global_lsn>[#<region_id>=<region_lsn>]*".
type VectorSessionToken struct {
	Version      uint64
	GlobalLSN    LSN
	RegionalLSNs map[RegionID]LSN
}

// parseUint64 parses a decimal uint64 digit by digit with an overflow
// check. Locale-dependent parsing (signs, separators, whitespace) is
// deliberately rejected so error attribution stays exact per field.
func parseUint64(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if v > (math.MaxUint64-d)/10 {
			return 0, false
		}
		v = v*10 + d
	}
	return v, true
}

func parseUint32(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	var v uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint32(c - '0')
		if v > (math.MaxUint32-d)/10 {
			return 0, false
		}
		v = v*10 + d
	}
	return v, true
}

// ParseVectorSessionToken parses the wire form of a vector session token.
// Duplicate region keys are allowed; the last occurrence wins.
func ParseVectorSessionToken(s string) (VectorSessionToken, error) {
	var zero VectorSessionToken
	if s == "" {
		return zero, ErrEmptyInput
	}

	hash := strings.IndexByte(s, '#')
	if hash < 0 {
		return zero, ErrMissingComponents
	}
	versionStr := s[:hash]
	version, ok := parseUint64(versionStr)
	if !ok {
		return zero, &InvalidFieldError{Field: FieldVersion, Value: versionStr}
	}

	if hash+1 >= len(s) {
		return zero, ErrMissingComponents
	}
	rest := s[hash+1:]
	globalStr := rest
	regionsStr := ""
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		globalStr = rest[:i]
		regionsStr = rest[i+1:]
	}
	globalLSN, ok := parseUint64(globalStr)
	if !ok {
		return zero, &InvalidFieldError{Field: FieldGlobalLSN, Value: globalStr}
	}

	regionalLSNs := make(map[RegionID]LSN)
	for regionsStr != "" {
		component := regionsStr
		next := -1
		if i := strings.IndexByte(regionsStr, '#'); i >= 0 {
			component = regionsStr[:i]
			next = i + 1
		}

		eq := strings.IndexByte(component, '=')
		if eq < 0 {
			return zero, &MalformedRegionError{Component: component}
		}
		idStr, lsnStr := component[:eq], component[eq+1:]
		if idStr == "" || lsnStr == "" {
			return zero, &MalformedRegionError{Component: component}
		}
		id, ok := parseUint32(idStr)
		if !ok {
			return zero, &InvalidFieldError{Field: FieldRegionID, Value: idStr}
		}
		lsn, ok := parseUint64(lsnStr)
		if !ok {
			return zero, &InvalidFieldError{Field: FieldRegionLSN, Value: lsnStr}
		}
		regionalLSNs[RegionID(id)] = LSN(lsn)

		if next < 0 {
			break
		}
		regionsStr = regionsStr[next:]
	}

	return VectorSessionToken{
		Version:      version,
		GlobalLSN:    LSN(globalLSN),
		RegionalLSNs: regionalLSNs,
	}, nil
}

// String formats the token in wire form. Region order follows map
// iteration, so the output is round-trip correct but not byte-stable.
func (t VectorSessionToken) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d#%d", t.Version, uint64(t.GlobalLSN))
	for id, lsn := range t.RegionalLSNs {
		fmt.Fprintf(&b, "#%d=%d", uint32(id), uint64(lsn))
	}
	return b.String()
}

// Equal reports whether two tokens carry identical progress.
func (t VectorSessionToken) Equal(other VectorSessionToken) bool {
	if t.Version != other.Version || t.GlobalLSN != other.GlobalLSN {
		return false
	}
	if len(t.RegionalLSNs) != len(other.RegionalLSNs) {
		return false
	}
	for id, lsn := range t.RegionalLSNs {
		o, ok := other.RegionalLSNs[id]
		if !ok || o != lsn {
			return false
		}
	}
	return true
}

func sameRegions(a, b VectorSessionToken) bool {
	if len(a.RegionalLSNs) != len(b.RegionalLSNs) {
		return false
	}
	for id := range a.RegionalLSNs {
		if _, ok := b.RegionalLSNs[id]; !ok {
			return false
		}
	}
	return true
}

// CanAdvanceTo reports whether other represents forward progress relative
// to t. A higher version always advances; a lower version never does.
// Equal-version tokens must track the same region set, otherwise a
// RegionMismatchError is returned; when they do, other advances iff its
// global LSN and every regional LSN are at least t's.
func (t VectorSessionToken) CanAdvanceTo(other VectorSessionToken) (bool, error) {
	switch {
	case other.Version > t.Version:
		return true, nil
	case other.Version < t.Version:
		return false, nil
	}

	if !sameRegions(t, other) {
		return false, &RegionMismatchError{Current: t.String(), Other: other.String()}
	}
	if other.GlobalLSN < t.GlobalLSN {
		return false, nil
	}
	for id, lsn := range t.RegionalLSNs {
		if other.RegionalLSNs[id] < lsn {
			return false, nil
		}
	}
	return true, nil
}

// Merge combines two tokens into one representing the union of progress
// known from both observations. Merge is commutative.
//
// Equal-version tokens must track the same region set (otherwise
// ErrTokensNotMergeable); the result takes the max of each component.
// With unequal versions the higher-version token supplies the version and
// global LSN verbatim; regions present in both take the max, and regions
// tracked only by the superseded generation are dropped.
func (t VectorSessionToken) Merge(other VectorSessionToken) (VectorSessionToken, error) {
	higher, lower := t, other
	if other.Version > t.Version {
		higher, lower = other, t
	}

	if higher.Version == lower.Version {
		if !sameRegions(higher, lower) {
			return VectorSessionToken{}, ErrTokensNotMergeable
		}
		merged := make(map[RegionID]LSN, len(higher.RegionalLSNs))
		for id, hi := range higher.RegionalLSNs {
			merged[id] = maxLSN(hi, lower.RegionalLSNs[id])
		}
		return VectorSessionToken{
			Version:      higher.Version,
			GlobalLSN:    maxLSN(higher.GlobalLSN, lower.GlobalLSN),
			RegionalLSNs: merged,
		}, nil
	}

	merged := make(map[RegionID]LSN, len(higher.RegionalLSNs))
	for id, hi := range higher.RegionalLSNs {
		merged[id] = hi
		if lo, ok := lower.RegionalLSNs[id]; ok {
			merged[id] = maxLSN(hi, lo)
		}
	}
	return VectorSessionToken{
		Version:      higher.Version,
		GlobalLSN:    higher.GlobalLSN,
		RegionalLSNs: merged,
	}, nil
}

func maxLSN(a, b LSN) LSN {
	if a > b {
		return a
	}
	return b
}
