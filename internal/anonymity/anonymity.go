// Package anonymity implements the anonymization engine: k-anonymity
// enforcement through hierarchical generalization and bounded suppression,
// and a closeness refinement loop (t-closeness, beta-likeness family) driven
// by an external privacy-metric oracle.
package anonymity

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/tabanon/internal/metrics"
	"github.com/inferloop/tabanon/pkg/constants"
	"github.com/inferloop/tabanon/pkg/dataset"
	"github.com/inferloop/tabanon/pkg/errors"
	"github.com/inferloop/tabanon/pkg/hierarchy"
)

// Oracle computes privacy metrics over a dataset. The engine never inspects
// how the values are computed; it only compares them against targets.
// Implementations must be side-effect-free and safe to call repeatedly.
type Oracle interface {
	KAnonymity(data *dataset.Dataset, quasiIdent []string) (int, error)
	TCloseness(data *dataset.Dataset, quasiIdent []string, sensAttr string) (float64, error)
	BasicBetaLikeness(data *dataset.Dataset, quasiIdent []string, sensAttr string) (float64, error)
	EnhancedBetaLikeness(data *dataset.Dataset, quasiIdent []string, sensAttr string) (float64, error)
}

// Recorder receives engine events for observability. A nil recorder is
// replaced by a no-op.
type Recorder interface {
	RecordRun(method, outcome string, duration time.Duration)
	RecordGeneralization(method, attribute string)
	RecordSuppression(method string, rows int)
}

type noopRecorder struct{}

func (noopRecorder) RecordRun(string, string, time.Duration) {}
func (noopRecorder) RecordGeneralization(string, string)     {}
func (noopRecorder) RecordSuppression(string, int)           {}

// Run outcomes reported to the recorder.
const (
	OutcomeSuccess    = "success"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
)

// Anonymizer runs anonymization passes over in-memory datasets. Each call is
// synchronous and self-contained: generalization state and the suppression
// budget live only for the duration of one call.
type Anonymizer struct {
	logger   *logrus.Logger
	oracle   Oracle
	scorer   Scorer
	recorder Recorder
}

// New creates an anonymizer. A nil oracle falls back to the built-in metric
// calculator and a nil logger to a default logrus logger.
func New(oracle Oracle, logger *logrus.Logger) *Anonymizer {
	if logger == nil {
		logger = logrus.New()
	}
	if oracle == nil {
		oracle = metrics.NewCalculator(logger)
	}

	return &Anonymizer{
		logger:   logger,
		oracle:   oracle,
		scorer:   DistinctValueScorer{},
		recorder: noopRecorder{},
	}
}

// SetScorer replaces the attribute-selection heuristic.
func (a *Anonymizer) SetScorer(s Scorer) {
	if s != nil {
		a.scorer = s
	}
}

// SetRecorder wires an observability recorder into the engine.
func (a *Anonymizer) SetRecorder(r Recorder) {
	if r != nil {
		a.recorder = r
	}
}

// KAnonymity anonymizes a dataset so that every combination of
// quasi-identifier values occurs at least k times, masking identifier
// columns and suppressing at most suppLevel percent of the rows. On
// infeasibility it returns an explicitly empty dataset and no error.
func (a *Anonymizer) KAnonymity(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	k int,
	suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	if err := validateParams(data, ident, quasiIdent, k, suppLevel, hierarchies); err != nil {
		return nil, err
	}

	start := time.Now()
	a.logger.WithFields(logrus.Fields{
		"rows":       data.Len(),
		"k":          k,
		"supp_level": suppLevel,
		"quasi":      quasiIdent,
	}).Info("Applying k-anonymity")

	anonymized, suppressed, _, err := a.enforce(data, ident, quasiIdent, k, suppLevel, hierarchies)
	if stderrors.Is(err, errors.ErrInfeasible) {
		a.logger.WithField("k", k).Warnf("Anonymization cannot be carried out for k=%d: %v", k, err)
		a.recorder.RecordRun(constants.MethodKAnonymity, OutcomeInfeasible, time.Since(start))
		return dataset.Empty(), nil
	}
	if err != nil {
		a.recorder.RecordRun(constants.MethodKAnonymity, OutcomeError, time.Since(start))
		return nil, err
	}

	a.recorder.RecordRun(constants.MethodKAnonymity, OutcomeSuccess, time.Since(start))
	a.logger.WithFields(logrus.Fields{
		"rows":       anonymized.Len(),
		"suppressed": suppressed,
	}).Info("k-anonymity applied")
	return anonymized, nil
}

// TCloseness anonymizes a dataset to k-anonymity and then refines it until
// the t-closeness of the sensitive attribute is at most t.
func (a *Anonymizer) TCloseness(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	sensAttr string,
	k int,
	t, suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	return a.anonymizeWithCloseness(data, ident, quasiIdent, sensAttr, k, suppLevel, hierarchies,
		Closeness{Kind: KindTCloseness, Threshold: t})
}

// BasicBetaLikeness anonymizes a dataset to k-anonymity and then refines it
// until basic beta-likeness is at most beta.
func (a *Anonymizer) BasicBetaLikeness(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	sensAttr string,
	k int,
	beta, suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	return a.anonymizeWithCloseness(data, ident, quasiIdent, sensAttr, k, suppLevel, hierarchies,
		Closeness{Kind: KindBasicBeta, Threshold: beta})
}

// EnhancedBetaLikeness anonymizes a dataset to k-anonymity and then refines
// it until enhanced beta-likeness is at most beta.
func (a *Anonymizer) EnhancedBetaLikeness(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	sensAttr string,
	k int,
	beta, suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	return a.anonymizeWithCloseness(data, ident, quasiIdent, sensAttr, k, suppLevel, hierarchies,
		Closeness{Kind: KindEnhancedBeta, Threshold: beta})
}

// KAnonymity applies k-anonymity with a default engine wiring. See
// Anonymizer.KAnonymity.
func KAnonymity(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	k int,
	suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	return New(nil, nil).KAnonymity(data, ident, quasiIdent, k, suppLevel, hierarchies)
}

// TCloseness applies t-closeness with a default engine wiring. See
// Anonymizer.TCloseness.
func TCloseness(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	sensAttr string,
	k int,
	t, suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	return New(nil, nil).TCloseness(data, ident, quasiIdent, sensAttr, k, t, suppLevel, hierarchies)
}

// BasicBetaLikeness applies basic beta-likeness with a default engine wiring.
func BasicBetaLikeness(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	sensAttr string,
	k int,
	beta, suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	return New(nil, nil).BasicBetaLikeness(data, ident, quasiIdent, sensAttr, k, beta, suppLevel, hierarchies)
}

// EnhancedBetaLikeness applies enhanced beta-likeness with a default engine
// wiring.
func EnhancedBetaLikeness(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	sensAttr string,
	k int,
	beta, suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) (*dataset.Dataset, error) {
	return New(nil, nil).EnhancedBetaLikeness(data, ident, quasiIdent, sensAttr, k, beta, suppLevel, hierarchies)
}

// anonymizeWithCloseness is the shared two-stage pipeline: parameter checks,
// k-anonymity enforcement, then the refinement loop reusing the enforcer's
// generalization-level state.
func (a *Anonymizer) anonymizeWithCloseness(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	sensAttr string,
	k int,
	suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
	closeness Closeness,
) (*dataset.Dataset, error) {
	if err := closeness.Validate(); err != nil {
		return nil, err
	}
	if err := validateParams(data, ident, quasiIdent, k, suppLevel, hierarchies); err != nil {
		return nil, err
	}
	if !data.HasColumn(sensAttr) {
		return nil, errors.NewDatasetError(errors.CodeColumnNotFound,
			fmt.Sprintf("sensitive attribute %q not found", sensAttr)).
			WithCause(errors.ErrColumnNotFound)
	}

	method := string(closeness.Kind)
	start := time.Now()
	a.logger.WithFields(logrus.Fields{
		"rows":       data.Len(),
		"k":          k,
		"metric":     method,
		"threshold":  closeness.Threshold,
		"supp_level": suppLevel,
		"sens_att":   sensAttr,
	}).Info("Applying closeness anonymization")

	kanon, suppressed, levels, err := a.enforce(data, ident, quasiIdent, k, suppLevel, hierarchies)
	if stderrors.Is(err, errors.ErrInfeasible) {
		a.logger.Warnf("Anonymization cannot be carried out for k=%d: %v", k, err)
		a.recorder.RecordRun(method, OutcomeInfeasible, time.Since(start))
		return dataset.Empty(), nil
	}
	if err != nil {
		a.recorder.RecordRun(method, OutcomeError, time.Since(start))
		return nil, err
	}

	refined, err := a.refine(kanon, quasiIdent, sensAttr, closeness, levels, hierarchies)
	if stderrors.Is(err, errors.ErrInfeasible) {
		a.logger.WithFields(logrus.Fields{
			"metric":    method,
			"threshold": closeness.Threshold,
		}).Warn("Closeness target cannot be met by generalization")
		a.recorder.RecordRun(method, OutcomeInfeasible, time.Since(start))
		return dataset.Empty(), nil
	}
	if err != nil {
		a.recorder.RecordRun(method, OutcomeError, time.Since(start))
		return nil, err
	}

	a.recorder.RecordRun(method, OutcomeSuccess, time.Since(start))
	a.logger.WithFields(logrus.Fields{
		"rows":       refined.Len(),
		"suppressed": suppressed,
		"metric":     method,
	}).Info("Closeness anonymization applied")
	return refined, nil
}

// validateParams fails fast on parameter errors before any mutation.
func validateParams(
	data *dataset.Dataset,
	ident, quasiIdent []string,
	k int,
	suppLevel float64,
	hierarchies map[string]*hierarchy.Hierarchy,
) error {
	if data == nil || data.IsEmpty() {
		return errors.NewDatasetError(errors.CodeEmptyDataset, "dataset is empty").
			WithCause(errors.ErrEmptyDataset)
	}
	if k < 1 {
		return errors.NewParameterError(errors.CodeInvalidK,
			fmt.Sprintf("invalid value of k, k=%d", k)).WithCause(errors.ErrInvalidK)
	}
	if suppLevel < 0 || suppLevel > 100 {
		return errors.NewParameterError(errors.CodeInvalidSuppLevel,
			fmt.Sprintf("invalid suppression level, supp_level=%g", suppLevel)).
			WithCause(errors.ErrInvalidSuppressionLevel)
	}
	if len(quasiIdent) == 0 {
		return errors.NewParameterError(errors.CodeMissingField, "no quasi-identifiers specified").
			WithCause(errors.ErrNoQuasiIdentifiers)
	}
	for _, col := range ident {
		if !data.HasColumn(col) {
			return errors.NewDatasetError(errors.CodeColumnNotFound,
				fmt.Sprintf("identifier column %q not found", col)).
				WithCause(errors.ErrColumnNotFound)
		}
	}
	for _, qi := range quasiIdent {
		if !data.HasColumn(qi) {
			return errors.NewDatasetError(errors.CodeColumnNotFound,
				fmt.Sprintf("quasi-identifier %q not found", qi)).
				WithCause(errors.ErrColumnNotFound)
		}
		if _, ok := hierarchies[qi]; !ok {
			return errors.NewParameterError(errors.CodeMissingHierarchy,
				fmt.Sprintf("no hierarchy defined for quasi-identifier %q", qi)).
				WithCause(errors.ErrMissingHierarchy)
		}
	}
	return nil
}
