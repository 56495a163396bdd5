package anonymity

import (
	"strings"

	"github.com/inferloop/tabanon/pkg/dataset"
)

// groupKeySep joins quasi-identifier values into an equivalence class key.
const groupKeySep = "\x1f"

// GenLevels records the current generalization level of each
// quasi-identifier. Levels start at 0 and never decrease within a run; the
// same state object is threaded from the k-anonymity enforcer into the
// closeness refinement loop so generalization is monotonic across stages.
type GenLevels map[string]int

// NewGenLevels creates a level state with every attribute at level 0.
func NewGenLevels(attributes []string) GenLevels {
	levels := make(GenLevels, len(attributes))
	for _, attr := range attributes {
		levels[attr] = 0
	}
	return levels
}

// Clone returns a copy of the level state.
func (g GenLevels) Clone() GenLevels {
	clone := make(GenLevels, len(g))
	for attr, level := range g {
		clone[attr] = level
	}
	return clone
}

// groupRows partitions row indices into equivalence classes over the current
// quasi-identifier values.
func groupRows(data *dataset.Dataset, quasiIdent []string) (map[string][]int, error) {
	columns := make([][]string, len(quasiIdent))
	for i, qi := range quasiIdent {
		col, err := data.Column(qi)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}

	classes := make(map[string][]int)
	tuple := make([]string, len(quasiIdent))
	for row := 0; row < data.Len(); row++ {
		for i := range quasiIdent {
			tuple[i] = columns[i][row]
		}
		key := strings.Join(tuple, groupKeySep)
		classes[key] = append(classes[key], row)
	}
	return classes, nil
}
