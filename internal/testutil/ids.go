package testutil

import (
	"fmt"
	"sync"
)

// SeqIDs mints predictable ids ("A1", "S2", ...) for tests that need to
// assert on exact file contents.
type SeqIDs struct {
	mu sync.Mutex
	n  int
}

// Next returns prefix followed by the next sequence number.
func (s *SeqIDs) Next(prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++

	return fmt.Sprintf("%s%d", prefix, s.n), nil
}
