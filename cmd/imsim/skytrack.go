package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchiang87/imSim/core"
	"github.com/jchiang87/imSim/internal/logging"
	"github.com/jchiang87/imSim/timectrl"
)

type skyTrackOptions struct {
	ra, dec  float64
	band     string
	start    string
	duration time.Duration
	step     time.Duration
}

func newSkyTrackCmd(root *rootOptions) *cobra.Command {
	var opts skyTrackOptions
	cmd := &cobra.Command{
		Use:   "sky-track",
		Short: "Tabulate altitude, airmass and visit sky counts for a field through a night",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSkyTrack(cmd, root, opts)
		},
	}
	cmd.Flags().Float64Var(&opts.ra, "ra", 0, "field right ascension in degrees")
	cmd.Flags().Float64Var(&opts.dec, "dec", 0, "field declination in degrees")
	cmd.Flags().StringVar(&opts.band, "band", "r", "LSST band (u, g, r, i, z, y)")
	cmd.Flags().StringVar(&opts.start, "start", "", "first epoch (RFC 3339); defaults to now")
	cmd.Flags().DurationVar(&opts.duration, "duration", 8*time.Hour, "length of the sweep")
	cmd.Flags().DurationVar(&opts.step, "step", 30*time.Minute, "interval between epochs")
	return cmd
}

func runSkyTrack(cmd *cobra.Command, root *rootOptions, opts skyTrackOptions) error {
	start := time.Now().UTC()
	if opts.start != "" {
		t, err := time.Parse(time.RFC3339, opts.start)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		start = t
	}
	if opts.step <= 0 {
		return fmt.Errorf("--step must be positive, got %s", opts.step)
	}

	ctx, a, err := newApp(cmd, root)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	cfg := a.cfg
	sky := cfg.SkyBrightness()
	params := cfg.SkyParams()
	visit := cfg.PhotParams().VisitTime()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-20s %10s %8s %10s %14s\n", "epoch", "alt_deg", "airmass", "sky_mag", "sky_counts")

	below := 0
	tc := timectrl.NewTimeController(start, opts.step, timectrl.Accelerated)
	tc.AddListener(func(ctx context.Context, epoch time.Time) error {
		mjd := core.MJD(epoch)
		alt := core.RubinSite.Altitude(opts.ra, opts.dec, mjd)
		stamp := epoch.UTC().Format("2006-01-02T15:04:05Z")

		mags, err := sky.SkyMagnitudes(opts.ra, opts.dec, mjd)
		if errors.Is(err, core.ErrBelowHorizon) {
			below++
			fmt.Fprintf(w, "%-20s %10.3f %8s %10s %14s\n", stamp, alt, "-", "-", "below horizon")
			return nil
		}
		if err != nil {
			return err
		}
		mag, ok := mags[opts.band]
		if !ok {
			return fmt.Errorf("%w: sky model has no %q magnitude", core.ErrUnknownBand, opts.band)
		}
		perSec, err := core.SkyCountsPerSec(mag, opts.band, params, cfg.Instrument.EffectiveAreaM2, cfg.Instrument.PixelScaleArcsec)
		if err != nil {
			return err
		}
		airmass := "-"
		if alt > 0 {
			airmass = fmt.Sprintf("%.4f", core.Airmass(alt))
		}
		fmt.Fprintf(w, "%-20s %10.3f %8s %10.4f %14.4f\n", stamp, alt, airmass, mag, perSec*visit)
		return nil
	})

	if err := tc.Run(ctx, opts.duration); err != nil {
		return err
	}
	a.log.Info(ctx, "sky track complete",
		logging.Int("epochs", len(tc.Epochs(opts.duration))),
		logging.Int("below_horizon", below),
	)
	return nil
}
