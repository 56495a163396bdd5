package anonymity

import (
	stderrors "errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/tabanon/pkg/dataset"
	"github.com/inferloop/tabanon/pkg/errors"
	"github.com/inferloop/tabanon/pkg/hierarchy"
)

// ClosenessKind identifies a closeness metric variant.
type ClosenessKind string

const (
	KindTCloseness   ClosenessKind = "t-closeness"
	KindBasicBeta    ClosenessKind = "basic-beta-likeness"
	KindEnhancedBeta ClosenessKind = "enhanced-beta-likeness"
)

// Closeness pairs a metric variant with its target threshold. All three
// variants share the refinement loop; only the oracle call differs, and
// satisfaction is always metric <= threshold.
type Closeness struct {
	Kind      ClosenessKind `json:"kind"`
	Threshold float64       `json:"threshold"`
}

// Validate checks the threshold against the metric's valid range.
func (c Closeness) Validate() error {
	switch c.Kind {
	case KindTCloseness:
		if c.Threshold < 0 || c.Threshold > 1 {
			return errors.NewParameterError(errors.CodeInvalidThreshold,
				fmt.Sprintf("invalid value of t for t-closeness, t=%g", c.Threshold)).
				WithCause(errors.ErrInvalidThreshold)
		}
	case KindBasicBeta, KindEnhancedBeta:
		if c.Threshold <= 0 {
			return errors.NewParameterError(errors.CodeInvalidThreshold,
				fmt.Sprintf("invalid value of beta for beta-likeness, beta=%g", c.Threshold)).
				WithCause(errors.ErrInvalidThreshold)
		}
	default:
		return errors.NewParameterError(errors.CodeInvalidInput,
			fmt.Sprintf("unknown closeness kind %q", c.Kind)).
			WithCause(errors.ErrUnknownClosenessKind)
	}
	return nil
}

// measure evaluates the variant's metric through the oracle.
func (c Closeness) measure(o Oracle, data *dataset.Dataset, quasiIdent []string, sensAttr string) (float64, error) {
	switch c.Kind {
	case KindTCloseness:
		return o.TCloseness(data, quasiIdent, sensAttr)
	case KindBasicBeta:
		return o.BasicBetaLikeness(data, quasiIdent, sensAttr)
	case KindEnhancedBeta:
		return o.EnhancedBetaLikeness(data, quasiIdent, sensAttr)
	default:
		return 0, errors.NewParameterError(errors.CodeInvalidInput,
			fmt.Sprintf("unknown closeness kind %q", c.Kind)).
			WithCause(errors.ErrUnknownClosenessKind)
	}
}

// refine keeps generalizing the most granular remaining quasi-identifier of
// an already k-anonymous dataset until the closeness metric meets its
// target. Hierarchy exhaustion prunes the attribute from the candidate set
// without recomputing the metric; an empty candidate set means the target
// cannot be reached by generalization alone. Levels only ever increase and
// no rows are suppressed here.
func (a *Anonymizer) refine(
	data *dataset.Dataset,
	quasiIdent []string,
	sensAttr string,
	closeness Closeness,
	levels GenLevels,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	value, err := closeness.measure(a.oracle, data, quasiIdent, sensAttr)
	if err != nil {
		return nil, err
	}

	if value <= closeness.Threshold {
		a.logger.WithFields(logrus.Fields{
			"metric":    string(closeness.Kind),
			"value":     value,
			"threshold": closeness.Threshold,
		}).Info("Dataset already satisfies closeness target")
		return data, nil
	}

	candidates := append([]string(nil), quasiIdent...)

	for {
		if len(candidates) == 0 {
			return nil, errors.NewPrivacyError(errors.CodeInfeasible,
				fmt.Sprintf("closeness target %g cannot be met by generalization", closeness.Threshold)).
				WithCause(errors.ErrInfeasible).
				WithContext("metric", string(closeness.Kind)).
				WithContext("value", value)
		}

		attr, ok := a.selectAttribute(data, candidates)
		if !ok {
			candidates = nil
			continue
		}

		col, err := data.Column(attr)
		if err != nil {
			return nil, err
		}

		generalized, err := hierarchies[attr].Apply(col, levels[attr]+1)
		if stderrors.Is(err, errors.ErrLevelExceeded) {
			// Fully generalized; never retried. The metric is unchanged, so
			// no recomputation is needed.
			candidates = removeAttribute(candidates, attr)
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := data.SetColumn(attr, generalized); err != nil {
			return nil, err
		}
		levels[attr]++
		a.recorder.RecordGeneralization(string(closeness.Kind), attr)

		value, err = closeness.measure(a.oracle, data, quasiIdent, sensAttr)
		if err != nil {
			return nil, err
		}

		a.logger.WithFields(logrus.Fields{
			"metric":    string(closeness.Kind),
			"attribute": attr,
			"level":     levels[attr],
			"value":     value,
			"threshold": closeness.Threshold,
		}).Debug("Refinement step")

		if value <= closeness.Threshold {
			return data, nil
		}
	}
}
