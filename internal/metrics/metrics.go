// Package metrics computes privacy metrics over anonymized tabular datasets:
// k-anonymity, t-closeness and the beta-likeness family. The anonymization
// engine consumes these through the anonymity.Oracle interface and only uses
// the returned value to decide whether to keep generalizing.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/tabanon/pkg/dataset"
	"github.com/inferloop/tabanon/pkg/errors"
)

// groupKeySep joins quasi-identifier values into an equivalence class key.
const groupKeySep = "\x1f"

// Calculator evaluates privacy metrics. It is stateless and safe to call
// repeatedly; each call recomputes from the dataset it is given.
type Calculator struct {
	logger *logrus.Logger
}

// NewCalculator creates a metric calculator.
func NewCalculator(logger *logrus.Logger) *Calculator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Calculator{logger: logger}
}

// KAnonymity returns the smallest equivalence class size over the given
// quasi-identifiers.
func (c *Calculator) KAnonymity(data *dataset.Dataset, quasiIdent []string) (int, error) {
	if err := c.validate(data, quasiIdent, ""); err != nil {
		return 0, err
	}

	classes, err := equivalenceClasses(data, quasiIdent)
	if err != nil {
		return 0, err
	}

	k := data.Len()
	for _, rows := range classes {
		if len(rows) < k {
			k = len(rows)
		}
	}
	return k, nil
}

// TCloseness returns the maximum, over all equivalence classes, of the earth
// mover's distance between the class's sensitive attribute distribution and
// the global one. Values are treated as ordered categories; the cumulative
// form keeps the result in [0, 1].
func (c *Calculator) TCloseness(data *dataset.Dataset, quasiIdent []string, sensAttr string) (float64, error) {
	if err := c.validate(data, quasiIdent, sensAttr); err != nil {
		return 0, err
	}

	sens, err := data.Column(sensAttr)
	if err != nil {
		return 0, err
	}

	global := frequencies(sens, nil)
	values := sortedKeys(global)

	classes, err := equivalenceClasses(data, quasiIdent)
	if err != nil {
		return 0, err
	}

	t := 0.0
	for _, rows := range classes {
		local := frequencies(sens, rows)
		if d := earthMoversDistance(local, global, values); d > t {
			t = d
		}
	}
	return t, nil
}

// BasicBetaLikeness returns the maximum relative gain (q-p)/p of any
// sensitive value's in-class frequency q over its global frequency p.
func (c *Calculator) BasicBetaLikeness(data *dataset.Dataset, quasiIdent []string, sensAttr string) (float64, error) {
	return c.betaLikeness(data, quasiIdent, sensAttr, false)
}

// EnhancedBetaLikeness is the beta-likeness variant that caps the allowed
// gain for rare values at ln(1/p): the reported value for each sensitive
// value is min((q-p)/p, ln(1/p)), maximized over classes and values.
func (c *Calculator) EnhancedBetaLikeness(data *dataset.Dataset, quasiIdent []string, sensAttr string) (float64, error) {
	return c.betaLikeness(data, quasiIdent, sensAttr, true)
}

func (c *Calculator) betaLikeness(data *dataset.Dataset, quasiIdent []string, sensAttr string, enhanced bool) (float64, error) {
	if err := c.validate(data, quasiIdent, sensAttr); err != nil {
		return 0, err
	}

	sens, err := data.Column(sensAttr)
	if err != nil {
		return 0, err
	}

	global := frequencies(sens, nil)

	classes, err := equivalenceClasses(data, quasiIdent)
	if err != nil {
		return 0, err
	}

	beta := 0.0
	for _, rows := range classes {
		local := frequencies(sens, rows)
		for v, q := range local {
			p := global[v]
			if p == 0 {
				continue
			}
			gain := (q - p) / p
			if enhanced {
				if bound := math.Log(1 / p); gain > bound {
					gain = bound
				}
			}
			if gain > beta {
				beta = gain
			}
		}
	}
	return beta, nil
}

func (c *Calculator) validate(data *dataset.Dataset, quasiIdent []string, sensAttr string) error {
	if data == nil || data.IsEmpty() {
		return errors.NewDatasetError(errors.CodeEmptyDataset, "dataset is empty").
			WithCause(errors.ErrEmptyDataset)
	}
	if len(quasiIdent) == 0 {
		return errors.NewParameterError(errors.CodeMissingField, "no quasi-identifiers specified").
			WithCause(errors.ErrNoQuasiIdentifiers)
	}
	for _, qi := range quasiIdent {
		if !data.HasColumn(qi) {
			return errors.NewDatasetError(errors.CodeColumnNotFound,
				fmt.Sprintf("quasi-identifier %q not found", qi)).WithCause(errors.ErrColumnNotFound)
		}
	}
	if sensAttr != "" && !data.HasColumn(sensAttr) {
		return errors.NewDatasetError(errors.CodeColumnNotFound,
			fmt.Sprintf("sensitive attribute %q not found", sensAttr)).WithCause(errors.ErrColumnNotFound)
	}
	return nil
}

// equivalenceClasses groups row indices by their quasi-identifier tuple.
func equivalenceClasses(data *dataset.Dataset, quasiIdent []string) (map[string][]int, error) {
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

// frequencies computes the normalized value frequencies of a column, over
// the given rows or over all rows when rows is nil.
func frequencies(values []string, rows []int) map[string]float64 {
	freq := make(map[string]float64)
	if rows == nil {
		for _, v := range values {
			freq[v]++
		}
		for v := range freq {
			freq[v] /= float64(len(values))
		}
		return freq
	}

	for _, i := range rows {
		freq[values[i]]++
	}
	for v := range freq {
		freq[v] /= float64(len(rows))
	}
	return freq
}

// earthMoversDistance computes the cumulative EMD between two distributions
// over a shared sorted value ordering, normalized by the number of values.
func earthMoversDistance(local, global map[string]float64, values []string) float64 {
	if len(values) == 0 {
		return 0
	}

	cumLocal := 0.0
	cumGlobal := 0.0
	distance := 0.0
	for _, v := range values {
		cumLocal += local[v]
		cumGlobal += global[v]
		distance += math.Abs(cumLocal - cumGlobal)
	}
	return distance / float64(len(values))
}

// sortedKeys returns the map keys in lexical order for deterministic
// iteration.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
