package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cargopipe/internal/cargo"
	"cargopipe/internal/pipeline"
)

// combined folds per-run fingerprints into one so two bench invocations can
// be compared at a glance.
func combined(reps []pipeline.Report) uint64 {
	ids := make([]string, len(reps))
	for i, rep := range reps {
		ids[i] = fmt.Sprintf("%016x", rep.Fingerprint)
	}
	return cargo.Fingerprint(ids)
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		path        string
		runs        int
		parallelism int
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Execute many independent pipeline runs and report throughput",
		Long: `Bench loads a pipeline file and executes runtime.runs independent runs,
at most runtime.parallelism at a time. With a seed, run i uses seed+i, so the
combined fingerprint is stable across invocations and parallelism settings.`,
		Example: `  cargopipe bench --config configs/pipelines/sample.json --runs 32 --parallelism 8 --seed 1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPipeline(path, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if a.seedSet {
				seed := a.seed
				cfg.Runtime.Seed = &seed
			}
			if cmd.Flags().Changed("runs") {
				if runs < 1 {
					return fmt.Errorf("--runs must be >= 1, got %d", runs)
				}
				cfg.Runtime.Runs = runs
			}
			if cmd.Flags().Changed("parallelism") {
				if parallelism < 1 {
					return fmt.Errorf("--parallelism must be >= 1, got %d", parallelism)
				}
				cfg.Runtime.Parallelism = parallelism
			}

			r := pipeline.New(cfg, pipeline.WithLogger(a.log))
			eff := r.Config()
			flush := a.setupMetrics(eff.Metrics, eff.Job)
			defer flush()

			start := time.Now()
			reps, err := r.RunMany(cmd.Context())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			var generated, filtered int
			for _, rep := range reps {
				generated += rep.Generate.GeneratedCount
				filtered += rep.FilteredCount()
			}
			a.log.Info("bench done",
				zap.Int("runs", len(reps)),
				zap.Int("parallelism", eff.Runtime.Parallelism),
				zap.Int("generated", generated),
				zap.Int("filtered", filtered),
				zap.Duration("elapsed", elapsed),
			)

			p := printer()
			w := cmd.ErrOrStderr()
			rate := float64(generated) / max(elapsed.Seconds(), 1e-9)
			p.Fprintf(w, "%d runs (parallelism %d) in %dms: %d rows generated, %d filtered, %.0f rows/s\n",
				len(reps), eff.Runtime.Parallelism, elapsed.Milliseconds(), generated, filtered, rate)
			if verbose {
				for _, rep := range reps {
					seed := "ambient"
					if rep.Seed != nil {
						seed = fmt.Sprint(*rep.Seed)
					}
					p.Fprintf(w, "  run %3d seed %-8s filtered %6d  fingerprint %016x  %dms\n",
						rep.Index, seed, rep.FilteredCount(), rep.Fingerprint, rep.Duration.Milliseconds())
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%016x\n", combined(reps))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&path, "config", "c", defaultPipelinePath, "pipeline file (.json, .yaml, .yml)")
	f.IntVar(&runs, "runs", 0, "override runtime.runs")
	f.IntVar(&parallelism, "parallelism", 0, "override runtime.parallelism")
	f.BoolVarP(&verbose, "verbose", "v", false, "print one line per run")
	return cmd
}
