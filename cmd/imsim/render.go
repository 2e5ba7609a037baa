package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchiang87/imSim/catalog"
	"github.com/jchiang87/imSim/core"
	"github.com/jchiang87/imSim/internal/logging"
	"github.com/jchiang87/imSim/internal/random"
)

type pointingOptions struct {
	ra, dec  float64
	rotation float64
	width    int
	height   int
	band     string
}

func (p *pointingOptions) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.ra, "ra", 0, "pointing right ascension in degrees")
	cmd.Flags().Float64Var(&p.dec, "dec", 0, "pointing declination in degrees")
	cmd.Flags().Float64Var(&p.rotation, "rotation", 0, "angle of +y from north in degrees")
	cmd.Flags().IntVar(&p.width, "width", 4096, "image width in pixels")
	cmd.Flags().IntVar(&p.height, "height", 4096, "image height in pixels")
	cmd.Flags().StringVar(&p.band, "band", "r", "LSST band (u, g, r, i, z, y)")
}

func (p *pointingOptions) validate() error {
	if p.width <= 0 || p.height <= 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", p.width, p.height)
	}
	if p.dec < -90 || p.dec > 90 {
		return fmt.Errorf("dec must be within [-90, 90], got %g", p.dec)
	}
	return nil
}

type renderOptions struct {
	pointingOptions
	catalogPath string
	chromatic   bool
	jsonOutput  bool
}

// renderSummary is what the render command reports.
type renderSummary struct {
	RunID         string         `json:"run_id"`
	Seed          uint64         `json:"seed"`
	CatalogTotal  int            `json:"catalog_objects"`
	Selected      int            `json:"selected_objects"`
	Subcomponents int            `json:"subcomponents"`
	Rendered      int            `json:"rendered"`
	Skipped       int            `json:"skipped"`
	Unsupported   int            `json:"unsupported"`
	ByKind        map[string]int `json:"by_kind"`
	TotalFlux     float64        `json:"total_flux,omitempty"`
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Build the renderable object for every catalog entry on an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "catalog file (.json or .parquet); overrides catalog.path")
	cmd.Flags().BoolVar(&opts.chromatic, "chromatic", false, "attach SEDs instead of integrating them over the band")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the summary as JSON")
	return cmd
}

func runRender(cmd *cobra.Command, root *rootOptions, opts renderOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	ctx, a, err := newApp(cmd, root)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	cfg := a.cfg

	path := opts.catalogPath
	if path == "" {
		path = cfg.Catalog.Path
	}
	if path == "" {
		return errors.New("no catalog: pass --catalog or set catalog.path")
	}

	start := time.Now()
	store := catalog.NewStore()
	unsubscribe := store.Subscribe(func(ev catalog.Event) {
		if ev.Type == catalog.EventObjectAdded {
			a.metrics.SetCatalogObjects(store.Len())
		}
	})
	loaded, err := catalog.Load(store, path)
	unsubscribe()
	if err != nil {
		return err
	}
	a.metrics.ObserveStage("load", time.Since(start))
	a.log.Info(ctx, "catalog loaded",
		logging.String("path", path),
		logging.Int("objects", loaded.Objects),
		logging.Int("subcomponents", loaded.Subcomponents),
	)

	bp, err := cfg.Bandpass(opts.band)
	if err != nil {
		return err
	}
	seed, source, err := random.ResolveSeed(cfg.Background.Seed, nil)
	if err != nil {
		return err
	}
	a.log.Debug(ctx, "random stream seeded", logging.Any("seed", seed), logging.String("source", string(source)))

	wcs := core.TanWCS{
		RA0:         opts.ra,
		Dec0:        opts.dec,
		CRPix1:      0.5 * float64(opts.width+1),
		CRPix2:      0.5 * float64(opts.height+1),
		PixelScale:  cfg.Instrument.PixelScaleArcsec,
		RotationDeg: opts.rotation,
	}
	cat, err := core.OpenSkyCatalog(ctx, store, core.RegionQuery{
		WCS:         wcs,
		Bounds:      core.NewBounds(opts.width, opts.height),
		EdgePix:     cfg.Catalog.EdgePix,
		ObjectTypes: cfg.ObjectTypes(),
	}, core.SkyCatalogOptions{
		FlipG2:         cfg.Catalog.FlipG2,
		CollectingArea: cfg.Instrument.CollectingAreaCm2,
		Logger:         a.log,
		Metrics:        a.metrics,
	})
	if err != nil {
		return err
	}

	summary := renderSummary{
		RunID:         logging.RunIDFromContext(ctx),
		Seed:          seed,
		CatalogTotal:  store.Len(),
		Subcomponents: cat.NObjects(),
		ByKind:        make(map[string]int),
	}
	selected := make(map[int]struct{})

	start = time.Now()
	rng := random.NewStream(seed)
	renderOpts := core.RenderOptions{
		Bandpass:  bp,
		ExpTime:   cfg.PhotParams().VisitTime(),
		Chromatic: opts.chromatic,
		Rand:      rng,
	}
	for i := 0; i < cat.NObjects(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, err := cat.Key(i)
		if err != nil {
			return err
		}
		selected[key.ObjectIndex] = struct{}{}
		src, err := cat.Object(i)
		if err != nil {
			return err
		}

		obj, err := cat.RenderableObject(ctx, i, renderOpts)
		switch {
		case errors.Is(err, core.ErrUnsupportedObjectKind):
			summary.Unsupported++
			a.log.Warn(ctx, "skipping unsupported object",
				logging.Int("index", i),
				logging.String("object", src.ID),
				logging.String("component", key.Component),
			)
			continue
		case err != nil:
			return fmt.Errorf("render index %d: %w", i, err)
		case obj == nil:
			summary.Skipped++
			continue
		}
		summary.Rendered++
		summary.ByKind[obj.Shape.Kind().String()]++
		if !obj.Chromatic() {
			summary.TotalFlux += obj.Flux
		}
	}
	summary.Selected = len(selected)
	a.metrics.ObserveStage("render", time.Since(start))

	a.log.Info(ctx, "render complete",
		logging.Int("rendered", summary.Rendered),
		logging.Int("skipped", summary.Skipped),
		logging.Int("unsupported", summary.Unsupported),
	)
	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printRenderSummary(cmd.OutOrStdout(), summary)
	return nil
}

func printRenderSummary(w io.Writer, s renderSummary) {
	fmt.Fprintf(w, "catalog objects: %d (selected %d, %d subcomponents)\n", s.CatalogTotal, s.Selected, s.Subcomponents)
	fmt.Fprintf(w, "rendered:        %d\n", s.Rendered)
	fmt.Fprintf(w, "skipped:         %d\n", s.Skipped)
	fmt.Fprintf(w, "unsupported:     %d\n", s.Unsupported)
	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-8s %d\n", k, s.ByKind[k])
	}
	if s.TotalFlux > 0 {
		fmt.Fprintf(w, "total flux:      %.6g photons\n", s.TotalFlux)
	}
}
