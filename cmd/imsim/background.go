package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/jchiang87/imSim/core"
	"github.com/jchiang87/imSim/internal/imageio"
	"github.com/jchiang87/imSim/internal/logging"
	"github.com/jchiang87/imSim/internal/random"
	"github.com/jchiang87/imSim/model"
)

type backgroundOptions struct {
	pointingOptions
	epoch   string
	pngPath string
	rawPath string
}

func newBackgroundCmd(root *rootOptions) *cobra.Command {
	var opts backgroundOptions
	cmd := &cobra.Command{
		Use:   "background",
		Short: "Synthesize a sky background image for one visit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackground(cmd, root, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.epoch, "epoch", "", "visit start time (RFC 3339); defaults to now")
	cmd.Flags().StringVar(&opts.pngPath, "png", "", "write a stretched PNG preview here")
	cmd.Flags().StringVar(&opts.rawPath, "raw", "", "write zstd-compressed float32 pixels here")
	return cmd
}

func runBackground(cmd *cobra.Command, root *rootOptions, opts backgroundOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	epoch := time.Now().UTC()
	if opts.epoch != "" {
		t, err := time.Parse(time.RFC3339, opts.epoch)
		if err != nil {
			return fmt.Errorf("parse --epoch: %w", err)
		}
		epoch = t
	}

	ctx, a, err := newApp(cmd, root)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	cfg := a.cfg

	bp, err := cfg.Bandpass(opts.band)
	if err != nil {
		return err
	}
	seed, source, err := random.ResolveSeed(cfg.Background.Seed, nil)
	if err != nil {
		return err
	}
	a.log.Debug(ctx, "random stream seeded", logging.Any("seed", seed), logging.String("source", string(source)))

	obs := model.ObservationMetadata{
		PointingRA:  opts.ra,
		PointingDec: opts.dec,
		Epoch:       epoch,
		Band:        opts.band,
	}
	sky, err := core.NewSkyBackground(obs, random.NewStream(seed), core.SkyBackgroundOptions{
		Model:           cfg.SkyBrightness(),
		Params:          cfg.SkyParams(),
		Bandpass:        bp,
		EffectiveArea:   cfg.Instrument.EffectiveAreaM2,
		PixelScale:      cfg.Instrument.PixelScaleArcsec,
		PhotonsPerPixel: cfg.Background.PhotonsPerPixel,
		NRecalcFloor:    cfg.Background.NRecalcFloor,
		ChunkSize:       cfg.Background.ChunkSize,
		Angles:          core.FRatioAngles{FRatio: cfg.Instrument.FRatio, Obscuration: cfg.Instrument.Obscuration},
		AddBackground:   !cfg.Background.DisableBackground,
		AddNoise:        !cfg.Background.DisableNoise,
		Logger:          a.log,
		Metrics:         a.metrics,
	})
	if err != nil {
		return err
	}

	img := core.NewImage(core.NewBounds(opts.width, opts.height))
	out, err := sky.AddNoiseAndBackground(ctx, img, cfg.PhotParams())
	if err != nil {
		return err
	}

	if opts.pngPath != "" {
		if err := writeFile(opts.pngPath, func(f *os.File) error {
			return imageio.WritePNG(f, out, imageio.PreviewOptions{})
		}); err != nil {
			return err
		}
	}
	if opts.rawPath != "" {
		if err := writeFile(opts.rawPath, func(f *os.File) error {
			return imageio.WriteRaw(f, out)
		}); err != nil {
			return err
		}
	}

	mean, std := stat.MeanStdDev(out.Pix, nil)
	a.log.Info(ctx, "sky background written",
		logging.String("band", opts.band),
		logging.Float64("sky_counts", sky.SkyCounts()),
		logging.String("state", sky.State().String()),
	)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "band:        %s\n", opts.band)
	fmt.Fprintf(w, "sky counts:  %.6f e-/pixel\n", sky.SkyCounts())
	fmt.Fprintf(w, "state:       %s\n", sky.State())
	fmt.Fprintf(w, "pixel mean:  %.6f\n", mean)
	fmt.Fprintf(w, "pixel std:   %.6f\n", std)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
