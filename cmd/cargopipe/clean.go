package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cargopipe/internal/cargo"
	"cargopipe/internal/cleaner"
	"cargopipe/internal/codec"
)

func newCleanCmd(a *app) *cobra.Command {
	var (
		in      string
		out     string
		format  string
		timeout time.Duration
		rejects bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Keep only valid, de-duplicated rows from a raw JSON batch",
		Long: `Clean reads a JSON array of raw rows and writes the rows that pass every
check (known status, known category, finite non-negative price, finite
weight, v4 UUID id). The first row with a given id wins; later duplicates
are removed. The whole scan fails if it runs past --timeout.`,
		Example: `  cargopipe generate --count 5000 | cargopipe clean --timeout 500ms
  cargopipe clean --in raw.json --format csv --out clean.csv --rejects`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			r, closeIn, err := openInput(in, cmd.InOrStdin())
			if err != nil {
				return err
			}
			rows, err := codec.ReadRawJSON(r)
			_ = closeIn()
			if err != nil {
				return err
			}

			opts := []cleaner.Option{cleaner.WithTimeout(timeout)}
			removed := map[cleaner.Reason]int{}
			if rejects {
				opts = append(opts, cleaner.WithRejectHook(func(i int, reason cleaner.Reason) {
					removed[reason]++
					a.log.Debug("row removed", zap.Int("index", i), zap.String("id", rows[i].ID), zap.String("reason", string(reason)))
				}))
			}
			res, err := cleaner.Clean(rows, opts...)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if format == formatCSV {
				err = codec.WriteCleanCSV(w, res.Rows)
			} else {
				err = codec.WriteJSON(w, res.Rows)
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			a.log.Info("cleaned",
				zap.Int("removed", res.RemovedCount),
				zap.Int("remaining", res.RemainingCount),
				zap.Int64("duration_ms", res.DurationMs()),
			)
			p := printer()
			p.Fprintf(cmd.ErrOrStderr(), "removed %d of %d rows, %d remaining, in %dms, fingerprint %016x\n",
				res.RemovedCount, len(rows), res.RemainingCount, res.DurationMs(),
				cargo.Fingerprint(cargo.CleanIDs(res.Rows)))
			if rejects {
				for _, reason := range cleaner.Reasons {
					if n := removed[reason]; n > 0 {
						p.Fprintf(cmd.ErrOrStderr(), "  %-9s %d\n", reason, n)
					}
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "-", "raw rows JSON file (- for stdin)")
	f.StringVarP(&out, "out", "o", "-", "output file (- for stdout)")
	f.StringVar(&format, "format", formatJSON, "output format (json, csv)")
	f.DurationVar(&timeout, "timeout", cleaner.DefaultTimeout, "scan budget; zero or negative uses the default")
	f.BoolVar(&rejects, "rejects", false, "count removed rows per reason (and log each at debug level)")
	return cmd
}
