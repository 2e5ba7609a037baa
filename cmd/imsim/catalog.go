package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jchiang87/imSim/catalog"
	"github.com/jchiang87/imSim/internal/logging"
	"github.com/jchiang87/imSim/model"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and convert source catalogs",
	}
	cmd.AddCommand(newCatalogInfoCmd())
	cmd.AddCommand(newCatalogConvertCmd(root))
	return cmd
}

func newCatalogInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Summarize a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, summary, err := catalog.Open(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "objects:       %d\n", summary.Objects)
			fmt.Fprintf(w, "subcomponents: %d\n", summary.Subcomponents)
			types := make([]string, 0, len(summary.ByType))
			for t := range summary.ByType {
				types = append(types, string(t))
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintf(w, "  %-8s %d\n", t, summary.ByType[model.ObjectType(t)])
			}
			return nil
		},
	}
}

func newCatalogConvertCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out.parquet>",
		Short: "Convert a JSON catalog to Parquet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			switch strings.ToLower(filepath.Ext(out)) {
			case ".parquet", ".pq":
			default:
				return fmt.Errorf("%w: output %q must be .parquet", catalog.ErrUnknownFormat, out)
			}

			ctx, a, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			store, summary, err := catalog.Open(in)
			if err != nil {
				return err
			}
			if err := writeFile(out, func(f *os.File) error {
				return catalog.WriteParquet(f, store.List())
			}); err != nil {
				return err
			}
			a.log.Info(ctx, "catalog converted",
				logging.String("from", in),
				logging.String("to", out),
				logging.Int("objects", summary.Objects),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d objects to %s\n", summary.Objects, out)
			return nil
		},
	}
}
