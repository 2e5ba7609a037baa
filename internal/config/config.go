package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jchiang87/imSim/core"
	"github.com/jchiang87/imSim/model"
)

// EnvPrefix prefixes every environment override, e.g. IMSIM_CATALOG_PATH.
const EnvPrefix = "IMSIM_"

// Config holds the simulator configuration.
type Config struct {
	Catalog    CatalogConfig     `yaml:"catalog" toml:"catalog" envPrefix:"CATALOG_"`
	SkyModel   SkyModelConfig    `yaml:"sky_model" toml:"sky_model" envPrefix:"SKY_"`
	Instrument InstrumentConfig  `yaml:"instrument" toml:"instrument" envPrefix:"INSTRUMENT_"`
	Background BackgroundConfig  `yaml:"background" toml:"background" envPrefix:"BACKGROUND_"`
	Bandpasses map[string]string `yaml:"bandpasses" toml:"bandpasses" env:"BANDPASSES"` // band -> throughput file
	Logging    LoggingConfig     `yaml:"logging" toml:"logging" envPrefix:"LOG_"`
}

// CatalogConfig selects the source catalog and how it is read.
type CatalogConfig struct {
	Path        string   `yaml:"path" toml:"path" env:"PATH"`
	EdgePix     float64  `yaml:"edge_pix" toml:"edge_pix" env:"EDGE_PIX"`
	FlipG2      bool     `yaml:"flip_g2" toml:"flip_g2" env:"FLIP_G2"`
	ObjectTypes []string `yaml:"object_types" toml:"object_types" env:"OBJECT_TYPES"`
}

// SkyModelConfig is the zero-point table and the sky brightness source.
type SkyModelConfig struct {
	Model      string             `yaml:"model" toml:"model" env:"MODEL"` // fixed | airmass
	B0         float64            `yaml:"b0" toml:"b0" env:"B0"`
	ZeroPoints map[string]float64 `yaml:"zero_points" toml:"zero_points" env:"ZERO_POINTS"`
	// Magnitudes are the sky surface brightness per band for the fixed model.
	Magnitudes map[string]float64 `yaml:"magnitudes" toml:"magnitudes" env:"MAGNITUDES"`
}

// InstrumentConfig describes the telescope and camera.
type InstrumentConfig struct {
	CollectingAreaCm2 float64 `yaml:"collecting_area_cm2" toml:"collecting_area_cm2" env:"COLLECTING_AREA_CM2"`
	EffectiveAreaM2   float64 `yaml:"effective_area_m2" toml:"effective_area_m2" env:"EFFECTIVE_AREA_M2"`
	PixelScaleArcsec  float64 `yaml:"pixel_scale_arcsec" toml:"pixel_scale_arcsec" env:"PIXEL_SCALE_ARCSEC"`
	FRatio            float64 `yaml:"f_ratio" toml:"f_ratio" env:"F_RATIO"`
	Obscuration       float64 `yaml:"obscuration" toml:"obscuration" env:"OBSCURATION"`
	Gain              float64 `yaml:"gain" toml:"gain" env:"GAIN"`
	ReadNoise         float64 `yaml:"read_noise" toml:"read_noise" env:"READ_NOISE"`
	NExp              int     `yaml:"nexp" toml:"nexp" env:"NEXP"`
	ExpTime           float64 `yaml:"exptime" toml:"exptime" env:"EXPTIME"`
}

// BackgroundConfig tunes the sky photon generator.
type BackgroundConfig struct {
	DisableBackground bool    `yaml:"disable_background" toml:"disable_background" env:"DISABLE_BACKGROUND"`
	DisableNoise      bool    `yaml:"disable_noise" toml:"disable_noise" env:"DISABLE_NOISE"`
	PhotonsPerPixel   float64 `yaml:"photons_per_pixel" toml:"photons_per_pixel" env:"PHOTONS_PER_PIXEL"`
	NRecalcFloor      float64 `yaml:"nrecalc_floor" toml:"nrecalc_floor" env:"NRECALC_FLOOR"`
	ChunkSize         int     `yaml:"chunk_size" toml:"chunk_size" env:"CHUNK_SIZE"`
	Seed              uint64  `yaml:"seed" toml:"seed" env:"SEED"` // 0 draws a fresh seed
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" env:"LEVEL"`    // debug, info, warn, error
	Format string `yaml:"format" toml:"format" env:"FORMAT"` // text or json
}

// Default returns a configuration with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// Load reads path (YAML or TOML by extension), applies IMSIM_* environment
// overrides and defaults, and validates the result. An empty path starts
// from defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		cfg, err = Parse(data, formatOf(path))
		if err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// Parse decodes data in the given format ("yaml" or "toml").
func Parse(data []byte, format string) (Config, error) {
	var cfg Config
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse toml config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from IMSIM_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Catalog.EdgePix <= 0 {
		c.Catalog.EdgePix = core.DefaultEdgePix
	}
	if len(c.Catalog.ObjectTypes) == 0 {
		c.Catalog.ObjectTypes = []string{string(model.ObjectTypeGalaxy)}
	}

	if c.SkyModel.Model == "" {
		c.SkyModel.Model = "fixed"
	}
	defaults := core.DefaultSkyModelParams()
	if c.SkyModel.B0 == 0 {
		c.SkyModel.B0 = defaults.B0
	}
	if c.SkyModel.ZeroPoints == nil {
		c.SkyModel.ZeroPoints = defaults.ZeroPoints
	}
	if c.SkyModel.Magnitudes == nil {
		c.SkyModel.Magnitudes = make(map[string]float64, len(core.DarkSkyZenith))
		for band, mag := range core.DarkSkyZenith {
			c.SkyModel.Magnitudes[band] = mag
		}
	}

	in := &c.Instrument
	if in.CollectingAreaCm2 <= 0 {
		in.CollectingAreaCm2 = core.RubinCollectingArea
	}
	if in.EffectiveAreaM2 <= 0 {
		in.EffectiveAreaM2 = core.DefaultEffectiveArea
	}
	if in.PixelScaleArcsec <= 0 {
		in.PixelScaleArcsec = core.DefaultPixelScale
	}
	if in.FRatio <= 0 {
		in.FRatio = core.RubinFRatioAngles.FRatio
	}
	if in.Obscuration <= 0 {
		in.Obscuration = core.RubinFRatioAngles.Obscuration
	}
	if in.Gain <= 0 {
		in.Gain = 1
	}
	if in.NExp <= 0 {
		in.NExp = 1
	}
	if in.ExpTime <= 0 {
		in.ExpTime = core.DefaultExpTime
	}

	bg := &c.Background
	if bg.PhotonsPerPixel <= 0 {
		bg.PhotonsPerPixel = core.DefaultPhotonsPerPixel
	}
	if bg.NRecalcFloor <= 0 {
		bg.NRecalcFloor = core.DefaultNRecalc
	}
	if bg.ChunkSize <= 0 {
		bg.ChunkSize = core.DefaultChunkSize
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.SkyModel.Model {
	case "fixed", "airmass":
	default:
		return fmt.Errorf("sky_model.model must be \"fixed\" or \"airmass\", got %q", c.SkyModel.Model)
	}
	for band, zp := range c.SkyModel.ZeroPoints {
		if zp <= 0 {
			return fmt.Errorf("sky_model.zero_points.%s must be positive, got %g", band, zp)
		}
	}
	for _, typ := range c.Catalog.ObjectTypes {
		switch model.ObjectType(typ) {
		case model.ObjectTypeStar, model.ObjectTypeGalaxy:
		default:
			return fmt.Errorf("catalog.object_types: unknown type %q", typ)
		}
	}
	if c.Instrument.Obscuration >= 1 {
		return fmt.Errorf("instrument.obscuration must be below 1, got %g", c.Instrument.Obscuration)
	}
	if c.Instrument.ReadNoise < 0 {
		return fmt.Errorf("instrument.read_noise must not be negative, got %g", c.Instrument.ReadNoise)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// SkyParams returns the zero-point table for core.SkyCountsPerSec.
func (c *Config) SkyParams() core.SkyModelParams {
	return core.SkyModelParams{B0: c.SkyModel.B0, ZeroPoints: c.SkyModel.ZeroPoints}
}

// SkyBrightness builds the configured sky brightness model.
func (c *Config) SkyBrightness() core.SkyBrightnessModel {
	if c.SkyModel.Model == "airmass" {
		return core.NewAirmassSkyModel()
	}
	return core.FixedSkyModel(c.SkyModel.Magnitudes)
}

// ObjectTypes converts the configured catalog types.
func (c *Config) ObjectTypes() []model.ObjectType {
	out := make([]model.ObjectType, len(c.Catalog.ObjectTypes))
	for i, t := range c.Catalog.ObjectTypes {
		out[i] = model.ObjectType(t)
	}
	return out
}

// PhotParams is the photometric response of the camera.
func (c *Config) PhotParams() model.PhotParams {
	return model.PhotParams{
		NExp:      c.Instrument.NExp,
		ExpTime:   c.Instrument.ExpTime,
		Gain:      c.Instrument.Gain,
		ReadNoise: c.Instrument.ReadNoise,
	}
}

// Bandpass returns the throughput for band: the configured file when one is
// set, otherwise the built-in top-hat.
func (c *Config) Bandpass(band string) (*core.Bandpass, error) {
	if path, ok := c.Bandpasses[band]; ok && path != "" {
		table, err := core.LoadThroughput(path)
		if err != nil {
			return nil, err
		}
		return core.NewBandpass(band, table), nil
	}
	bp, ok := core.DefaultBandpasses()[band]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBand, band)
	}
	return bp, nil
}
