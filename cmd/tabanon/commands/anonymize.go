package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/tabanon/internal/anonymity"
	"github.com/inferloop/tabanon/pkg/constants"
	"github.com/inferloop/tabanon/pkg/dataset"
	"github.com/inferloop/tabanon/pkg/hierarchy"
)

type AnonymizeOptions struct {
	InputFile        string
	OutputFile       string
	HierarchyDir     string
	Identifiers      []string
	QuasiIdentifiers []string
	SensitiveAttr    string
	Method           string
	K                int
	T                float64
	Beta             float64
	SuppressionLevel float64
}

func NewAnonymizeCmd() *cobra.Command {
	opts := &AnonymizeOptions{}

	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Anonymize a tabular dataset",
		Long: `Anonymize a CSV dataset by generalizing quasi-identifier columns along
their hierarchies and suppressing records within a bounded budget, until the
requested privacy guarantee holds.`,
		Example: `  # k-anonymity with k=2 and no suppression
  tabanon anonymize --input hospital.csv --hierarchy-dir hierarchies \
    --ident name --quasi age,gender,city -k 2 --method k-anonymity

  # t-closeness refinement on top of k-anonymity
  tabanon anonymize --input hospital.csv --hierarchy-dir hierarchies \
    --ident name --quasi age,gender,city --sens-att disease \
    -k 2 --t 0.4 --method t-closeness --output anonymized.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnonymize(opts, cmd)
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input CSV file (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output CSV file (- for stdout)")
	cmd.Flags().StringVar(&opts.HierarchyDir, "hierarchy-dir", "", "Directory with per-attribute hierarchy CSV files (<attr>.csv)")
	cmd.Flags().StringSliceVar(&opts.Identifiers, "ident", nil, "Identifier columns to mask")
	cmd.Flags().StringSliceVar(&opts.QuasiIdentifiers, "quasi", nil, "Quasi-identifier columns (required)")
	cmd.Flags().StringVar(&opts.SensitiveAttr, "sens-att", "", "Sensitive attribute (closeness methods)")
	cmd.Flags().StringVar(&opts.Method, "method", constants.MethodKAnonymity,
		"Anonymization method (k-anonymity, t-closeness, basic-beta-likeness, enhanced-beta-likeness)")
	cmd.Flags().IntVarP(&opts.K, "k", "k", constants.DefaultK, "Minimum equivalence class size")
	cmd.Flags().Float64Var(&opts.T, "t", constants.DefaultTCloseness, "t-closeness target in [0,1]")
	cmd.Flags().Float64Var(&opts.Beta, "beta", constants.DefaultBetaLikeness, "beta-likeness target (> 0)")
	cmd.Flags().Float64Var(&opts.SuppressionLevel, "supp-level", constants.DefaultSuppressionLevel,
		"Maximum percentage of rows that may be suppressed (0-100)")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("quasi")

	return cmd
}

func runAnonymize(opts *AnonymizeOptions, cmd *cobra.Command) error {
	logger := newLogger(cmd)

	data, err := dataset.ReadCSVFile(opts.InputFile)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	hierarchies, err := loadHierarchies(data, opts.QuasiIdentifiers, opts.HierarchyDir)
	if err != nil {
		return fmt.Errorf("failed to load hierarchies: %w", err)
	}

	anonymizer := anonymity.New(nil, logger)

	var result *dataset.Dataset
	switch opts.Method {
	case constants.MethodKAnonymity:
		result, err = anonymizer.KAnonymity(data, opts.Identifiers, opts.QuasiIdentifiers,
			opts.K, opts.SuppressionLevel, hierarchies)
	case constants.MethodTCloseness:
		result, err = anonymizer.TCloseness(data, opts.Identifiers, opts.QuasiIdentifiers,
			opts.SensitiveAttr, opts.K, opts.T, opts.SuppressionLevel, hierarchies)
	case constants.MethodBasicBeta:
		result, err = anonymizer.BasicBetaLikeness(data, opts.Identifiers, opts.QuasiIdentifiers,
			opts.SensitiveAttr, opts.K, opts.Beta, opts.SuppressionLevel, hierarchies)
	case constants.MethodEnhancedBeta:
		result, err = anonymizer.EnhancedBetaLikeness(data, opts.Identifiers, opts.QuasiIdentifiers,
			opts.SensitiveAttr, opts.K, opts.Beta, opts.SuppressionLevel, hierarchies)
	default:
		return fmt.Errorf("unknown method %q", opts.Method)
	}
	if err != nil {
		return fmt.Errorf("anonymization failed: %w", err)
	}

	if result.IsEmpty() {
		fmt.Fprintln(os.Stderr, "The anonymization cannot be carried out with the given parameters")
		return fmt.Errorf("infeasible: no parameter combination satisfies the constraints")
	}

	if opts.OutputFile == "-" {
		if err := result.WriteCSV(os.Stdout); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		if err := result.WriteCSVFile(opts.OutputFile); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("Anonymized dataset written to %s (%d of %d rows kept)\n",
			opts.OutputFile, result.Len(), data.Len())
	}

	return nil
}

// loadHierarchies reads <attr>.csv from the hierarchy directory for each
// quasi-identifier, falling back to an identity hierarchy over the column's
// values when no file exists. An identity hierarchy means the attribute can
// never be generalized.
func loadHierarchies(data *dataset.Dataset, quasiIdent []string, dir string) (map[string]*hierarchy.Hierarchy, error) {
	hierarchies := make(map[string]*hierarchy.Hierarchy, len(quasiIdent))
	for _, attr := range quasiIdent {
		path := filepath.Join(dir, attr+".csv")
		if dir != "" {
			if _, err := os.Stat(path); err == nil {
				h, err := hierarchy.ReadCSVFile(path)
				if err != nil {
					return nil, fmt.Errorf("hierarchy for %q: %w", attr, err)
				}
				hierarchies[attr] = h
				continue
			}
		}

		col, err := data.Column(attr)
		if err != nil {
			return nil, err
		}
		hierarchies[attr] = hierarchy.Identity(col)
	}
	return hierarchies, nil
}

// newLogger builds the CLI logger, honoring the global --verbose flag.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}
