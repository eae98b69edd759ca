package session

import (
	"sort"
	"strings"
	"sync"
)

// ContainerSession tracks the latest partition session token observed for
// each partition key range of one container. Reads run concurrently;
// writes exclude all other access to the same container.
type ContainerSession struct {
	mu     sync.RWMutex
	tokens map[string]PartitionSessionToken
}

// NewContainerSession creates an empty container session.
func NewContainerSession() *ContainerSession {
	return &ContainerSession{
		tokens: make(map[string]PartitionSessionToken),
	}
}

// SetSessionToken records the partition tokens carried in a container
// session token header value: a comma-separated list of partition session
// tokens, e.g. "42:1#123#4=500,43:1#124#4=501".
//
// Each parsed token replaces any prior entry for its partition. Segments
// are applied one at a time, so a failure partway leaves earlier segments
// applied; the call is not transactional.
func (s *ContainerSession) SetSessionToken(token string) error {
	if token == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, segment := range strings.Split(token, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		parsed, err := ParsePartitionSessionToken(segment)
		if err != nil {
			return err
		}
		s.tokens[parsed.PKRangeID] = parsed
	}
	return nil
}

// GetSessionToken serializes the tracked tokens into a single container
// session token value, sorted lexicographically for deterministic output.
// The second return is false when no partitions are tracked.
func (s *ContainerSession) GetSessionToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.tokens) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(s.tokens))
	for _, token := range s.tokens {
		parts = append(parts, token.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ","), true
}

// GetPartitionSessionToken returns the token tracked for one partition key
// range, or false if none is tracked.
func (s *ContainerSession) GetPartitionSessionToken(pkRangeID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[pkRangeID]
	if !ok {
		return "", false
	}
	return token.String(), true
}

// ClearSession removes all tracked tokens.
func (s *ContainerSession) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]PartitionSessionToken)
}
