package plan

import (
	"fmt"

	contractx "github.com/krzycho/dbagent/agent/contract"
)

// Store keeps every plan revision for one task. Revisions are appended,
// never edited in place, so earlier intent stays replayable. A Store
// belongs to a single task's loop and is not safe for concurrent use.
type Store struct {
	history []contractx.Plan
}

func NewStore() *Store {
	return &Store{}
}

// Push appends a new revision. The revision counter is assigned here so
// callers cannot fabricate history positions.
func (s *Store) Push(p contractx.Plan) (contractx.Plan, error) {
	if len(p.Steps) == 0 {
		return contractx.Plan{}, fmt.Errorf("%w: plan has no steps", contractx.ErrValidation)
	}
	next := p.Clone()
	next.Revision = len(s.history) + 1
	s.history = append(s.history, next)
	return next.Clone(), nil
}

// Current returns the latest revision.
func (s *Store) Current() (contractx.Plan, bool) {
	if len(s.history) == 0 {
		return contractx.Plan{}, false
	}
	return s.history[len(s.history)-1].Clone(), true
}

// History returns all revisions oldest-first.
func (s *Store) History() []contractx.Plan {
	out := make([]contractx.Plan, 0, len(s.history))
	for _, p := range s.history {
		out = append(out, p.Clone())
	}
	return out
}

func (s *Store) Revisions() int {
	return len(s.history)
}
