package session

import "strings"

// PartitionSessionToken binds a vector session token to the partition key
// range it describes.
//
// Wire format: "<pkrange_id>:<vector_token>", e.g. "42:1#123#4=500".
type PartitionSessionToken struct {
	PKRangeID string
	Vector    VectorSessionToken
}

// ParsePartitionSessionToken parses the wire form of a partition session
// token. Vector token parse errors surface unchanged.
func ParsePartitionSessionToken(s string) (PartitionSessionToken, error) {
	var zero PartitionSessionToken
	if s == "" {
		return zero, ErrEmptyInput
	}

	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return zero, ErrMissingComponents
	}
	vectorPart := s[colon+1:]
	if vectorPart == "" {
		return zero, ErrMissingComponents
	}

	vector, err := ParseVectorSessionToken(vectorPart)
	if err != nil {
		return zero, err
	}
	return PartitionSessionToken{
		PKRangeID: s[:colon],
		Vector:    vector,
	}, nil
}

// String formats the token in wire form.
func (t PartitionSessionToken) String() string {
	return t.PKRangeID + ":" + t.Vector.String()
}
