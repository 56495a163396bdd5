// Package hierarchy implements per-attribute generalization hierarchies:
// ordered sequences of increasingly coarse value domains, from the raw
// domain at level 0 up to full suppression.
package hierarchy

import (
	"fmt"

	"github.com/inferloop/tabanon/pkg/errors"
)

// Hierarchy holds the generalization table for one attribute. Each level is
// a column of values aligned by row: levels[l][i] is the image at level l of
// the chain whose raw value is levels[0][i]. Level 0 is the raw domain.
type Hierarchy struct {
	levels [][]string
	// index maps a value at any level to its chain row, so values that have
	// already been generalized can still be mapped to coarser levels.
	index map[string]int
}

// New builds a hierarchy from level columns. All levels must have the same
// length and at least level 0 must be present.
func New(levels [][]string) (*Hierarchy, error) {
	if len(levels) == 0 || len(levels[0]) == 0 {
		return nil, errors.NewHierarchyError(errors.CodeInvalidInput, "hierarchy has no levels")
	}

	n := len(levels[0])
	for l, level := range levels {
		if len(level) != n {
			return nil, errors.NewHierarchyError(errors.CodeInvalidInput,
				fmt.Sprintf("level %d has %d values, expected %d", l, len(level), n)).
				WithCause(errors.ErrRaggedHierarchy)
		}
	}

	h := &Hierarchy{
		levels: make([][]string, len(levels)),
		index:  make(map[string]int),
	}
	for l, level := range levels {
		h.levels[l] = append([]string(nil), level...)
	}

	// First occurrence wins: every value, at whatever level it appears,
	// resolves to one chain row.
	for _, level := range h.levels {
		for i, v := range level {
			if _, ok := h.index[v]; !ok {
				h.index[v] = i
			}
		}
	}

	return h, nil
}

// Identity builds a single-level hierarchy over the given raw values. The
// attribute cannot be generalized at all: requesting level 1 exhausts it.
func Identity(values []string) *Hierarchy {
	h, _ := New([][]string{values})
	return h
}

// MaxLevel returns the deepest defined generalization level.
func (h *Hierarchy) MaxLevel() int {
	return len(h.levels) - 1
}

// Apply maps each value to its image at the target level. Values may come
// from any level of the hierarchy, not only the raw domain, so repeated
// one-level generalization steps compose. Returns ErrLevelExceeded (wrapped)
// when the level is beyond the hierarchy's depth; callers treat that as the
// recoverable "attribute fully generalized" signal.
func (h *Hierarchy) Apply(values []string, level int) ([]string, error) {
	if level < 0 {
		return nil, errors.NewHierarchyError(errors.CodeInvalidInput,
			fmt.Sprintf("negative generalization level %d", level))
	}
	if level > h.MaxLevel() {
		return nil, errors.NewHierarchyError(errors.CodeLevelExceeded,
			fmt.Sprintf("level %d exceeds maximum level %d", level, h.MaxLevel())).
			WithCause(errors.ErrLevelExceeded)
	}

	generalized := make([]string, len(values))
	for i, v := range values {
		row, ok := h.index[v]
		if !ok {
			return nil, errors.NewHierarchyError(errors.CodeUnmappedValue,
				fmt.Sprintf("value %q not present in hierarchy", v)).
				WithCause(errors.ErrValueNotInHierarchy)
		}
		generalized[i] = h.levels[level][row]
	}

	return generalized, nil
}
