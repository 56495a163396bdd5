package anonymity

import (
	stderrors "errors"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/tabanon/pkg/constants"
	"github.com/inferloop/tabanon/pkg/dataset"
	"github.com/inferloop/tabanon/pkg/errors"
	"github.com/inferloop/tabanon/pkg/hierarchy"
)

// enforce drives the k-anonymity loop: it masks identifier columns, then
// alternates between checking equivalence class sizes and generalizing the
// most identifying quasi-identifier one level, suppressing the undersized
// classes once doing so fits within the suppression budget. On success every
// equivalence class has size >= k and at most suppLevel percent of the
// original rows were removed. Returns errors.ErrInfeasible (wrapped) when
// every hierarchy is exhausted and the budget cannot absorb the remainder.
func (a *Anonymizer) enforce(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	k int,
	suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, int, GenLevels, error) {
	out := data.Clone()
	originalRows := out.Len()
	levels := NewGenLevels(quasiIdent)

	// Identifier columns carry no analytic value for the engine; mask them
	// outright instead of dropping them so the table keeps its shape.
	masked := make([]string, originalRows)
	for i := range masked {
		masked[i] = constants.SuppressedValue
	}
	for _, col := range ident {
		if err := out.SetColumn(col, masked); err != nil {
			return nil, 0, levels, err
		}
	}

	candidates := append([]string(nil), quasiIdent...)

	for {
		classes, err := groupRows(out, quasiIdent)
		if err != nil {
			return nil, 0, levels, err
		}

		undersized := 0
		for _, rows := range classes {
			if len(rows) < k {
				undersized += len(rows)
			}
		}

		if undersized == 0 {
			return out, 0, levels, nil
		}

		if float64(undersized)/float64(originalRows)*100 <= suppLevel {
			keep := make([]bool, out.Len())
			for i := range keep {
				keep[i] = true
			}
			for _, rows := range classes {
				if len(rows) < k {
					for _, row := range rows {
						keep[row] = false
					}
				}
			}
			suppressed, err := out.SelectRows(keep)
			if err != nil {
				return nil, 0, levels, err
			}
			a.recorder.RecordSuppression(constants.MethodKAnonymity, undersized)
			a.logger.WithFields(logrus.Fields{
				"suppressed_rows": undersized,
				"original_rows":   originalRows,
				"supp_level":      suppLevel,
			}).Info("Suppressed undersized equivalence classes")
			return suppressed, undersized, levels, nil
		}

		attr, ok := a.selectAttribute(out, candidates)
		if !ok {
			return nil, 0, levels, errors.NewPrivacyError(errors.CodeInfeasible,
				"all hierarchies exhausted before reaching k-anonymity").
				WithCause(errors.ErrInfeasible).
				WithContext("k", k).
				WithContext("undersized_rows", undersized)
		}

		col, err := out.Column(attr)
		if err != nil {
			return nil, 0, levels, err
		}

		generalized, err := hierarchies[attr].Apply(col, levels[attr]+1)
		if stderrors.Is(err, errors.ErrLevelExceeded) {
			candidates = removeAttribute(candidates, attr)
			continue
		}
		if err != nil {
			return nil, 0, levels, err
		}

		if err := out.SetColumn(attr, generalized); err != nil {
			return nil, 0, levels, err
		}
		levels[attr]++
		a.recorder.RecordGeneralization(constants.MethodKAnonymity, attr)
		a.logger.WithFields(logrus.Fields{
			"attribute":       attr,
			"level":           levels[attr],
			"undersized_rows": undersized,
		}).Debug("Generalized quasi-identifier")
	}
}
