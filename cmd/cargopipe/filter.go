package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cargopipe/internal/cargo"
	"cargopipe/internal/codec"
	"cargopipe/internal/filter"
)

// priceBound parses a price flag. Blank or unparseable input means no bound,
// matching how the filter treats unusable constraints.
func priceBound(a *app, name, s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := cargo.ParseNumStrict(s)
	if err != nil {
		a.log.Warn("ignoring price bound", zap.String("flag", name), zap.Error(err))
		return nil
	}
	return &v
}

func newFilterCmd(a *app) *cobra.Command {
	var (
		in         string
		out        string
		format     string
		categories []string
		buckets    []string
		priceMin   string
		priceMax   string
		name       string
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep rows matching a composite predicate",
		Long: `Filter reads a JSON array of rows (raw or clean) and keeps those matching
every given constraint: category membership, weight within any listed
bucket, price within the inclusive bounds, and a case-sensitive name
substring. Omitted constraints match everything.`,
		Example: `  cargopipe generate --count 1000 | cargopipe clean | cargopipe filter --category food --bucket 5-10 --price-min 0 --price-max 100`,
		Args:    cobra.NoArgs,
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

			spec := filter.Spec{
				Categories:    toCategories(categories),
				WeightBuckets: buckets,
				PriceMin:      priceBound(a, "price-min", priceMin),
				PriceMax:      priceBound(a, "price-max", priceMax),
				NameQuery:     name,
			}
			matched := filter.Apply(rows, spec)

			w, closeOut, err := openOutput(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if format == formatCSV {
				err = codec.WriteRawCSV(w, matched)
			} else {
				err = codec.WriteJSON(w, matched)
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			a.log.Info("filtered", zap.Int("input", len(rows)), zap.Int("matched", len(matched)), zap.Bool("unconstrained", spec.IsZero()))
			printer().Fprintf(cmd.ErrOrStderr(), "matched %d of %d rows\n", len(matched), len(rows))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "-", "rows JSON file (- for stdin)")
	f.StringVarP(&out, "out", "o", "-", "output file (- for stdout)")
	f.StringVar(&format, "format", formatJSON, "output format (json, csv)")
	f.StringSliceVar(&categories, "category", nil, "keep these categories (repeatable)")
	f.StringSliceVar(&buckets, "bucket", nil, "keep weights in these \"<min>-<max>\" buckets (repeatable)")
	f.StringVar(&priceMin, "price-min", "", "minimum price (inclusive)")
	f.StringVar(&priceMax, "price-max", "", "maximum price (inclusive)")
	f.StringVar(&name, "name", "", "case-sensitive name substring")
	return cmd
}
