package artifacts

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Guard records which source claimed each output path during one run
type Guard struct {
	claims sync.Map
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{}
}

// Claim reserves path for source. A second, different source claiming the
// same path gets ErrOutputCollision.
func (g *Guard) Claim(path, source string) error {
	path = filepath.Clean(path)
	owner, loaded := g.claims.LoadOrStore(path, source)
	if loaded && owner.(string) != source {
		return fmt.Errorf("%w: %s and %s both write %s", ErrOutputCollision, owner, source, path)
	}
	return nil
}
