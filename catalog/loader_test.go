package catalog

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jchiang87/imSim/model"
)

const sampleCatalog = `{
  "objects": [
    {
      "id": "gal-1",
      "type": "Galaxy",
      "ra": 10.0,
      "dec": -30.0,
      "subcomponents": ["bulge", "disk"],
      "attributes": {"size_bulge_true": 2.0, "size_minor_bulge_true": 1.0, "sersic_bulge": 4},
      "seds": {
        "bulge": {"wavelengths": [300, 1100], "flambda": [1e-17, 1e-17], "magnorm": 22.5},
        "disk": {"wavelengths": [300, 1100], "flambda": [1e-17, 1e-17], "magnorm": null}
      }
    },
    {
      "id": "star-1",
      "type": " star ",
      "ra": 10.01,
      "dec": -30.01,
      "attributes": {"MW_rv": 3.1},
      "seds": {"": {"wavelengths": [300, 600, 1100], "flambda": [1, 2, 3], "magnorm": 18}}
    }
  ]
}`

func TestLoadJSON(t *testing.T) {
	store := NewStore()
	summary, err := LoadJSON(store, strings.NewReader(sampleCatalog))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if summary.Objects != 2 || summary.Subcomponents != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.ByType[model.ObjectTypeGalaxy] != 1 || summary.ByType[model.ObjectTypeStar] != 1 {
		t.Fatalf("by type = %v", summary.ByType)
	}

	gal := store.Get("gal-1")
	if gal.Type != model.ObjectTypeGalaxy {
		t.Fatalf("type = %q", gal.Type)
	}
	if v, ok := gal.NativeAttribute("sersic_bulge"); !ok || v != 4 {
		t.Fatalf("sersic_bulge = %v, %v", v, ok)
	}
	if m := gal.SED("disk").MagNorm; !math.IsInf(m, 1) {
		t.Fatalf("null magnorm loaded as %v, want +Inf", m)
	}
	if m := gal.SED("bulge").MagNorm; m != 22.5 {
		t.Fatalf("bulge magnorm = %v", m)
	}
	if store.Get("star-1").Type != model.ObjectTypeStar {
		t.Fatalf("star type not normalized")
	}
}

func TestLoadJSONErrors(t *testing.T) {
	if _, err := LoadJSON(nil, strings.NewReader(sampleCatalog)); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := LoadJSON(NewStore(), strings.NewReader("{")); err == nil {
		t.Fatalf("expected decode error")
	}
	dup := `{"objects":[{"id":"a","type":"star"},{"id":"a","type":"star"}]}`
	if _, err := LoadJSON(NewStore(), strings.NewReader(dup)); !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("err = %v, want ErrDuplicateObject", err)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	src := NewStore()
	if _, err := LoadJSON(src, strings.NewReader(sampleCatalog)); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteParquet(&buf, src.List()); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	dst := NewStore()
	summary, err := LoadParquet(dst, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("LoadParquet: %v", err)
	}
	if summary.Objects != 2 || summary.Subcomponents != 3 {
		t.Fatalf("summary = %+v", summary)
	}

	for _, want := range src.List() {
		got := dst.Get(want.ID)
		if got == nil {
			t.Fatalf("%s missing after round trip", want.ID)
		}
		if got.Type != want.Type || got.RA != want.RA || got.Dec != want.Dec {
			t.Fatalf("%s header mismatch: %+v vs %+v", want.ID, got, want)
		}
		if len(got.Subcomponents) != len(want.Subcomponents) {
			t.Fatalf("%s subcomponents %v vs %v", want.ID, got.Subcomponents, want.Subcomponents)
		}
		for k, v := range want.Attributes {
			if got.Attributes[k] != v {
				t.Fatalf("%s attribute %s = %v, want %v", want.ID, k, got.Attributes[k], v)
			}
		}
		for c, sed := range want.SEDs {
			g := got.SED(c)
			if g.MagNorm != sed.MagNorm && !(math.IsInf(g.MagNorm, 1) && math.IsInf(sed.MagNorm, 1)) {
				t.Fatalf("%s/%s magnorm %v, want %v", want.ID, c, g.MagNorm, sed.MagNorm)
			}
			if len(g.Wavelengths) != len(sed.Wavelengths) || len(g.FLambda) != len(sed.FLambda) {
				t.Fatalf("%s/%s table length mismatch", want.ID, c)
			}
			for i := range sed.FLambda {
				if g.FLambda[i] != sed.FLambda[i] || g.Wavelengths[i] != sed.Wavelengths[i] {
					t.Fatalf("%s/%s sample %d differs", want.ID, c, i)
				}
			}
		}
	}
}

func TestOpenDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "cat.json")
	if err := os.WriteFile(jsonPath, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	store, summary, err := Open(jsonPath)
	if err != nil {
		t.Fatalf("Open json: %v", err)
	}
	if store.Len() != 2 || summary.Objects != 2 {
		t.Fatalf("json store len = %d", store.Len())
	}

	pqPath := filepath.Join(dir, "cat.parquet")
	f, err := os.Create(pqPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteParquet(f, store.List()); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	pq, _, err := Open(pqPath)
	if err != nil {
		t.Fatalf("Open parquet: %v", err)
	}
	if pq.Len() != 2 {
		t.Fatalf("parquet store len = %d", pq.Len())
	}

	if _, _, err := Open(filepath.Join(dir, "cat.csv")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
	if _, _, err := Open(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
