package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gostudy/adapters/rng"
	"gostudy/app"
	"gostudy/domain/abundance"
	"gostudy/domain/ordination"
	"gostudy/domain/study"
	"gostudy/internal/config"
	"gostudy/internal/errors"
	"gostudy/internal/logging"
	"gostudy/internal/testkit"
)

// globals shared by every command, filled in PersistentPreRunE
var (
	cfg     *config.Config
	logger  *zap.Logger
	dataset string
	format  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gostudy-cli",
		Short:         "Balanced subsampling, rarefaction clouds and treatment distances",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; the environment always wins
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger, err = logging.New(cfg.Log.Level)
			if err != nil {
				return errors.WithCode(errors.CodeConfigInvalid, err)
			}
			return validateFormat(format)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataset, "dataset", "synthetic", "Study to run on: synthetic|worked|soil")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Output format: text|json|yaml")

	rootCmd.AddCommand(
		newSelectCmd(),
		newRarefyCmd(),
		newCloudCmd(),
		newCompareCmd(),
		newSelectorsCmd(),
		newAlphaCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		stop()
		os.Exit(1)
	}
}

func newSelectCmd() *cobra.Command {
	var depth, subjects, samples int
	var subjectColumn string

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Draw a balanced subject/sample subset",
		Long: `Rarefy the study to a depth, keep subjects with enough surviving samples and
draw a reproducible subset of them.

Example: gostudy-cli select --depth 500 --subjects 4 --samples 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd.Context(), depth, subjects, samples, subjectColumn)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 500, "Rarefaction depth a sample must reach")
	cmd.Flags().IntVar(&subjects, "subjects", 4, "Number of subjects to select")
	cmd.Flags().IntVar(&samples, "samples", 2, "Samples per subject")
	cmd.Flags().StringVar(&subjectColumn, "subject-column", "", "Metadata column naming the subject (default SUBJECT_COLUMN)")
	return cmd
}

func runSelect(ctx context.Context, depth, subjects, samples int, subjectColumn string) error {
	md, table, err := loadStudy()
	if err != nil {
		return err
	}
	res, err := newService().Select(ctx, app.SelectRequest{
		Metadata:          md,
		Table:             table,
		Depth:             depth,
		SubjectColumn:     subjectColumn,
		Subjects:          subjects,
		SamplesPerSubject: samples,
	})
	if err != nil {
		return err
	}
	return render(res, func() {
		fmt.Printf("SELECTION %s (%d ms)\n", res.RunID, res.RuntimeMs)
		for _, id := range res.ChosenIDs {
			fmt.Println(id)
		}
	})
}

func newRarefyCmd() *cobra.Command {
	var minDepth, maxDepth, steps, iterations int

	cmd := &cobra.Command{
		Use:   "rarefy",
		Short: "Generate a multi-depth rarefaction series",
		Long: `Rarefy the study's table at evenly spaced depths, several independent
iterations per depth.

Example: gostudy-cli rarefy --min-depth 100 --max-depth 800 --steps 4 --iterations 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRarefy(cmd.Context(), minDepth, maxDepth, steps, iterations)
		},
	}

	cmd.Flags().IntVar(&minDepth, "min-depth", 100, "Smallest depth")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 800, "Largest depth")
	cmd.Flags().IntVar(&steps, "steps", 0, "Depth steps (default RAREFACTION_STEPS)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Iterations per depth (default RAREFACTION_ITERATIONS)")
	return cmd
}

func runRarefy(ctx context.Context, minDepth, maxDepth, steps, iterations int) error {
	_, table, err := loadStudy()
	if err != nil {
		return err
	}
	res, err := newService().Rarefy(ctx, app.RarefyRequest{
		Table:      table,
		MinDepth:   minDepth,
		MaxDepth:   maxDepth,
		Steps:      steps,
		Iterations: iterations,
	})
	if err != nil {
		return err
	}

	out := seriesOutput(res)
	return render(out, func() {
		fmt.Printf("RAREFACTION %s (%d ms)\n", res.RunID, res.RuntimeMs)
		fmt.Println("depth\titeration\tsamples")
		for _, t := range out.Tables {
			fmt.Printf("%d\t%d\t%d\n", t.Depth, t.Iteration, len(t.SampleIDs))
		}
	})
}

func newCloudCmd() *cobra.Command {
	var depth, iterations, axes int
	var metric string

	cmd := &cobra.Command{
		Use:   "cloud",
		Short: "Summarize repeated ordinations of rarefied tables",
		Long: `Rarefy the table repeatedly at one depth, ordinate every rarefaction and
summarize each sample's position as a center and per-axis radius.

Example: gostudy-cli cloud --depth 500 --iterations 10 --axes 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCloud(cmd.Context(), depth, iterations, axes, metric)
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 500, "Rarefaction depth")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Rarefactions to ordinate (default CLOUD_ITERATIONS)")
	cmd.Flags().IntVar(&axes, "axes", 0, "Axes to summarize (default CLOUD_AXES)")
	cmd.Flags().StringVar(&metric, "metric", "bray_curtis", "Beta diversity metric passed to the ordination")
	return cmd
}

func runCloud(ctx context.Context, depth, iterations, axes int, metric string) error {
	md, table, err := loadStudy()
	if err != nil {
		return err
	}
	if axes == 0 {
		axes = cfg.Cloud.Axes
	}
	svc := app.NewStudyService(*cfg, rng.NewStreamAdapter(), testkit.ProfileOrdination{Axes: axes}, nil, logger)
	res, err := svc.Cloud(ctx, app.CloudRequest{
		Table:      table,
		Metadata:   md,
		Depth:      depth,
		Iterations: iterations,
		Axes:       axes,
		Ordination: ordination.Request{Metric: ordination.Metric(metric)},
	})
	if err != nil {
		return err
	}
	return render(res, func() {
		fmt.Printf("CLOUD %s: %d iterations, %d skipped (%d ms)\n", res.RunID, res.Iterations, len(res.Skipped), res.RuntimeMs)
		for _, id := range sortedKeys(res.Ellipsoids) {
			e := res.Ellipsoids[id]
			fmt.Printf("%s\tcenter=%s\tradius=%s\n", id, formatFloats(e.Center), formatFloats(e.Radius))
		}
	})
}

func newCompareCmd() *cobra.Command {
	var category, metric string
	var ids []string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare distances within, between and to all treatment groups",
		Long: `Compute the study's distance matrix and summarize within-group,
between-group and group-to-rest distances for a metadata category.

Example: gostudy-cli compare --dataset worked --category Diet --ids a1,a2,c1,d1,d2,d3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), category, metric, ids)
		},
	}

	cmd.Flags().StringVar(&category, "category", testkit.DietColumn, "Metadata column defining the groups")
	cmd.Flags().StringVar(&metric, "metric", "bray_curtis", "Beta diversity metric")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Samples to group (default all)")
	return cmd
}

func runCompare(ctx context.Context, category, metric string, ids []string) error {
	md, table, err := loadStudy()
	if err != nil {
		return err
	}
	svc := app.NewStudyService(*cfg, rng.NewStreamAdapter(), nil, testkit.ProfileDistance{}, logger)
	res, err := svc.Compare(ctx, app.CompareRequest{
		Metadata:   md,
		Table:      table,
		ChosenIDs:  ids,
		Category:   category,
		Ordination: ordination.Request{Metric: ordination.Metric(metric)},
	})
	if err != nil {
		return err
	}

	out := comparisonOutput(res)
	return render(out, func() {
		fmt.Printf("COMPARISON %s on %s (%d ms)\n", res.RunID, category, res.RuntimeMs)
		fmt.Println("group\twithin\tto_all")
		for i, g := range res.Statistics.Groups {
			w, all := res.Statistics.Within(i), res.Statistics.ToAllStat(i)
			fmt.Printf("%s\t%.6f ± %.6f\t%.6f ± %.6f\n", g, w.Mean, w.SE, all.Mean, all.SE)
		}
		fmt.Println("between")
		for i, a := range res.Statistics.Groups {
			for j := i + 1; j < len(res.Statistics.Groups); j++ {
				b := res.Statistics.Between(i, j)
				fmt.Printf("%s-%s\t%.6f ± %.6f\n", a, res.Statistics.Groups[j], b.Mean, b.SE)
			}
		}
	})
}

func newSelectorsCmd() *cobra.Command {
	var minimum float64
	var subjectColumn string

	cmd := &cobra.Command{
		Use:   "selectors",
		Short: "List sample depths and the selections the study supports",
		Long: `Print every sample's sequencing depth, then the depths at which the number
of subjects, samples per subject or informative metadata columns change.

Example: gostudy-cli selectors --dataset soil --minimum 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectors(cmd.Context(), minimum, subjectColumn)
		},
	}

	cmd.Flags().Float64Var(&minimum, "minimum", 0, "Ignore depths below this")
	cmd.Flags().StringVar(&subjectColumn, "subject-column", "", "Metadata column naming the subject (default SUBJECT_COLUMN)")
	return cmd
}

func runSelectors(ctx context.Context, minimum float64, subjectColumn string) error {
	md, table, err := loadStudy()
	if err != nil {
		return err
	}
	res, err := newService().Selectors(ctx, app.SelectorsRequest{
		Metadata:      md,
		Table:         table,
		Minimum:       minimum,
		SubjectColumn: subjectColumn,
	})
	if err != nil {
		return err
	}

	return render(res, func() {
		sum := res.Summary
		fmt.Printf("SAMPLE DEPTHS %s: n=%d min=%g q25=%g median=%g q75=%g max=%g mean=%.1f sd=%.1f\n",
			res.RunID, sum.Samples, sum.Min, sum.Q25, sum.Median, sum.Q75, sum.Max, sum.Mean, sum.StdDev)
		for _, c := range res.Counts {
			fmt.Printf("%g\t%s\n", c.Depth, c.SampleID)
		}
		fmt.Println("SELECTORS")
		fmt.Println("depth\tsubjects\tsamples\tcategories")
		for _, r := range res.Selectors {
			fmt.Println(r.String())
		}
	})
}

func newAlphaCmd() *cobra.Command {
	var maxDepth, iterations int

	cmd := &cobra.Command{
		Use:   "alpha",
		Short: "Collate observed features over an alpha rarefaction",
		Long: `Rarefy at four steps up to a maximum depth and collate per-sample observed
feature counts, with per-depth means.

Example: gostudy-cli alpha --max-depth 800 --iterations 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlpha(cmd.Context(), maxDepth, iterations)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 800, "Largest depth")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Iterations per depth (default RAREFACTION_ITERATIONS)")
	return cmd
}

func runAlpha(ctx context.Context, maxDepth, iterations int) error {
	_, table, err := loadStudy()
	if err != nil {
		return err
	}
	res, err := newService().Alpha(ctx, app.AlphaRequest{Table: table, MaxDepth: maxDepth, Iterations: iterations})
	if err != nil {
		return err
	}

	out := alphaOutput(res)
	return render(out, func() {
		for _, metric := range sortedKeys(res.Collations) {
			c := res.Collations[metric]
			fmt.Printf("ALPHA %s %s (%d ms)\n", metric, res.RunID, res.RuntimeMs)
			fmt.Printf("depth\t%s\n", strings.Join(c.SampleIDs, "\t"))
			for _, m := range c.Means {
				fmt.Printf("%d\t%s\n", m.Depth, formatFloatsTab(m.Values))
			}
		}
	})
}

func newService() *app.StudyService {
	return app.NewStudyService(*cfg, rng.NewStreamAdapter(), nil, nil, logger)
}

func loadStudy() (*study.Metadata, *abundance.Table, error) {
	switch dataset {
	case "synthetic":
		synthetic := testkit.DefaultSyntheticConfig()
		synthetic.Seed = cfg.Study.Seed
		st, err := testkit.GenerateStudy(synthetic)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to generate synthetic study")
		}
		return st.Metadata, st.Table, nil
	case "worked":
		return testkit.WorkedMetadata(), testkit.WorkedTable(), nil
	case "soil":
		return testkit.SoilMetadata(), testkit.SoilTable(), nil
	}
	return nil, nil, errors.InvalidInput(fmt.Sprintf("unknown dataset %q (use synthetic, worked or soil)", dataset))
}
