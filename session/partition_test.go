package session

import (
	"errors"
	"strings"
	"testing"
)

func TestParsePartitionToken(t *testing.T) {
	token, err := ParsePartitionSessionToken("42:1#123#4=500#5=600")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if token.PKRangeID != "42" {
		t.Errorf("pkrange = %q, want %q", token.PKRangeID, "42")
	}
	if token.Vector.Version != 1 || token.Vector.GlobalLSN != 123 {
		t.Errorf("vector = %v", token.Vector)
	}
	if len(token.Vector.RegionalLSNs) != 2 {
		t.Errorf("regions = %v, want 2 entries", token.Vector.RegionalLSNs)
	}
}

func TestParsePartitionTokenMinimal(t *testing.T) {
	token, err := ParsePartitionSessionToken("0:2#456")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if token.PKRangeID != "0" || token.Vector.Version != 2 || token.Vector.GlobalLSN != 456 {
		t.Errorf("token = %v", token)
	}
	if len(token.Vector.RegionalLSNs) != 0 {
		t.Errorf("regions = %v, want none", token.Vector.RegionalLSNs)
	}
}

func TestParsePartitionTokenErrors(t *testing.T) {
	cases := []struct {
		input string
		want  error
	}{
		{"", ErrEmptyInput},
		{"42#1#123", ErrMissingComponents}, // no colon
		{":1#123", ErrMissingComponents},   // empty pkrange
		{"42:", ErrMissingComponents},      // empty vector part
		{"42:invalid", ErrMissingComponents},
	}

	for _, tc := range cases {
		_, err := ParsePartitionSessionToken(tc.input)
		if !errors.Is(err, tc.want) {
			t.Errorf("parse %q: error = %v, want %v", tc.input, err, tc.want)
		}
	}
}

func TestParsePartitionTokenVectorErrorsSurface(t *testing.T) {
	_, err := ParsePartitionSessionToken("42:1#bad")
	var invalid *InvalidFieldError
	if !errors.As(err, &invalid) || invalid.Field != FieldGlobalLSN {
		t.Errorf("error = %v, want InvalidFieldError for the global LSN", err)
	}
}

func TestPartitionTokenRoundTrip(t *testing.T) {
	original := "test-range:2#789#100=1000#200=2000"
	token, err := ParsePartitionSessionToken(original)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	text := token.String()
	if !strings.HasPrefix(text, "test-range:2#789#") {
		t.Errorf("String() = %q, want prefix %q", text, "test-range:2#789#")
	}

	reparsed, err := ParsePartitionSessionToken(text)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if reparsed.PKRangeID != token.PKRangeID || !reparsed.Vector.Equal(token.Vector) {
		t.Errorf("round trip: %v != %v", reparsed, token)
	}
}
