package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jchiang87/imSim/core"
	"github.com/jchiang87/imSim/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.SkyModel.B0 != 24 || cfg.SkyModel.ZeroPoints["r"] != 1.681 {
		t.Fatalf("sky defaults = %+v", cfg.SkyModel)
	}
	if cfg.Instrument.ExpTime != core.DefaultExpTime || cfg.Instrument.NExp != 1 {
		t.Fatalf("instrument defaults = %+v", cfg.Instrument)
	}
	if cfg.Background.PhotonsPerPixel != core.DefaultPhotonsPerPixel {
		t.Fatalf("photons per pixel = %v", cfg.Background.PhotonsPerPixel)
	}
	if got := cfg.ObjectTypes(); len(got) != 1 || got[0] != model.ObjectTypeGalaxy {
		t.Fatalf("object types = %v", got)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
catalog:
  path: sky.parquet
  flip_g2: true
  object_types: [galaxy, star]
sky_model:
  model: airmass
  zero_points:
    r: 2.0
instrument:
  gain: 1.7
  read_noise: 8.5
  nexp: 2
  exptime: 15
background:
  disable_noise: true
  seed: 42
logging:
  format: json
`)
	cfg, err := Parse(data, "yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Catalog.Path != "sky.parquet" || !cfg.Catalog.FlipG2 || len(cfg.Catalog.ObjectTypes) != 2 {
		t.Fatalf("catalog = %+v", cfg.Catalog)
	}
	if cfg.SkyModel.ZeroPoints["r"] != 2.0 {
		t.Fatalf("zero points = %v", cfg.SkyModel.ZeroPoints)
	}
	if _, ok := cfg.SkyBrightness().(*core.AirmassSkyModel); !ok {
		t.Fatalf("expected airmass sky model, got %T", cfg.SkyBrightness())
	}
	phot := cfg.PhotParams()
	if phot.VisitTime() != 30 || phot.Gain != 1.7 || phot.ReadNoise != 8.5 {
		t.Fatalf("phot params = %+v", phot)
	}
	if !cfg.Background.DisableNoise || cfg.Background.DisableBackground || cfg.Background.Seed != 42 {
		t.Fatalf("background = %+v", cfg.Background)
	}
}

func TestParseTOML(t *testing.T) {
	data := []byte(`
[catalog]
path = "cat.json"
edge_pix = 50.0

[sky_model]
b0 = 23.0

[sky_model.magnitudes]
r = 20.5

[bandpasses]
r = "total_r.dat"
`)
	cfg, err := Parse(data, "toml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg.ApplyDefaults()
	if cfg.Catalog.Path != "cat.json" || cfg.Catalog.EdgePix != 50 {
		t.Fatalf("catalog = %+v", cfg.Catalog)
	}
	if cfg.SkyParams().B0 != 23 {
		t.Fatalf("b0 = %v", cfg.SkyParams().B0)
	}
	mags, err := cfg.SkyBrightness().SkyMagnitudes(0, 0, 0)
	if err != nil || mags["r"] != 20.5 {
		t.Fatalf("fixed magnitudes = %v, %v", mags, err)
	}
	if cfg.Bandpasses["r"] != "total_r.dat" {
		t.Fatalf("bandpasses = %v", cfg.Bandpasses)
	}
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	if _, err := Parse([]byte("x"), "ini"); err == nil {
		t.Fatalf("expected error for ini format")
	}
	if _, err := Parse([]byte("catalog: ["), "yaml"); err == nil {
		t.Fatalf("expected yaml syntax error")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]func(*Config){
		"sky model":   func(c *Config) { c.SkyModel.Model = "moonlit" },
		"zero point":  func(c *Config) { c.SkyModel.ZeroPoints = map[string]float64{"r": -1} },
		"object type": func(c *Config) { c.Catalog.ObjectTypes = []string{"quasar"} },
		"obscuration": func(c *Config) { c.Instrument.Obscuration = 1.2 },
		"read noise":  func(c *Config) { c.Instrument.ReadNoise = -3 },
		"log format":  func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imsim.yaml")
	if err := os.WriteFile(path, []byte("catalog:\n  path: from-file.json\ninstrument:\n  gain: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("IMSIM_CATALOG_PATH", "from-env.parquet")
	t.Setenv("IMSIM_INSTRUMENT_READ_NOISE", "4.5")
	t.Setenv("IMSIM_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.Path != "from-env.parquet" {
		t.Fatalf("catalog path = %q, want env override", cfg.Catalog.Path)
	}
	if cfg.Instrument.Gain != 2 || cfg.Instrument.ReadNoise != 4.5 {
		t.Fatalf("instrument = %+v", cfg.Instrument)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	t.Setenv("IMSIM_SKY_MODEL", "bogus")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error from env override")
	}
}

func TestBandpassFallsBackToTopHat(t *testing.T) {
	cfg := Default()
	bp, err := cfg.Bandpass("r")
	if err != nil {
		t.Fatalf("Bandpass: %v", err)
	}
	if bp.BlueLimit() != 552 || bp.RedLimit() != 691 {
		t.Fatalf("r limits = [%v, %v]", bp.BlueLimit(), bp.RedLimit())
	}
	if _, err := cfg.Bandpass("w"); !errors.Is(err, core.ErrUnknownBand) {
		t.Fatalf("err = %v, want ErrUnknownBand", err)
	}
}

func TestBandpassFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.dat")
	if err := os.WriteFile(path, []byte("# wavelen throughput\n550 0.0\n600 0.5\n700 0.0\n"), 0o644); err != nil {
		t.Fatalf("write throughput: %v", err)
	}
	cfg := Default()
	cfg.Bandpasses = map[string]string{"r": path}
	bp, err := cfg.Bandpass("r")
	if err != nil {
		t.Fatalf("Bandpass: %v", err)
	}
	if got := bp.Throughput(600); got != 0.5 {
		t.Fatalf("throughput(600) = %v", got)
	}
}
