package catalog

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/jchiang87/imSim/model"
)

// objectRow is the on-disk layout of one catalog object. Attributes and SEDs
// are nested repeated groups so a single file carries the whole catalog.
type objectRow struct {
	ID            string         `parquet:"id"`
	Type          string         `parquet:"object_type"`
	RA            float64        `parquet:"ra"`
	Dec           float64        `parquet:"dec"`
	Subcomponents []string       `parquet:"subcomponents"`
	Attributes    []attributeRow `parquet:"attributes"`
	SEDs          []sedRow       `parquet:"seds"`
}

type attributeRow struct {
	Name  string  `parquet:"name"`
	Value float64 `parquet:"value"`
}

type sedRow struct {
	Component   string    `parquet:"component"`
	MagNorm     float64   `parquet:"magnorm"`
	Wavelengths []float64 `parquet:"wavelengths"`
	FLambda     []float64 `parquet:"flambda"`
}

const parquetBatch = 512

// LoadParquet reads a Parquet catalog into store. r must report its size
// (*os.File and *bytes.Reader do).
func LoadParquet(store *Store, r io.ReaderAt) (*LoadSummary, error) {
	if store == nil {
		return nil, fmt.Errorf("LoadParquet: store is nil")
	}

	rd := parquet.NewGenericReader[objectRow](r)
	defer rd.Close()

	summary := &LoadSummary{}
	buf := make([]objectRow, parquetBatch)
	for {
		n, readErr := rd.Read(buf)
		for i := 0; i < n; i++ {
			obj := rowToObject(&buf[i])
			if err := store.Add(obj); err != nil {
				return nil, fmt.Errorf("LoadParquet: %w", err)
			}
			summary.record(obj)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("LoadParquet: read rows: %w", readErr)
		}
	}
	return summary, nil
}

// rowToObject copies every slice out of the row; the reader reuses the
// buffer between batches.
func rowToObject(row *objectRow) *model.CatalogObject {
	obj := &model.CatalogObject{
		ID:         row.ID,
		Type:       objectTypeFromString(row.Type),
		RA:         row.RA,
		Dec:        row.Dec,
		Attributes: make(map[string]float64, len(row.Attributes)),
		SEDs:       make(map[string]model.SEDData, len(row.SEDs)),
	}
	if len(row.Subcomponents) > 0 {
		obj.Subcomponents = append([]string(nil), row.Subcomponents...)
	}
	for _, a := range row.Attributes {
		obj.Attributes[a.Name] = a.Value
	}
	for _, s := range row.SEDs {
		obj.SEDs[s.Component] = model.SEDData{
			Wavelengths: append([]float64(nil), s.Wavelengths...),
			FLambda:     append([]float64(nil), s.FLambda...),
			MagNorm:     s.MagNorm,
		}
	}
	return obj
}

// WriteParquet writes objects to w in the layout LoadParquet reads.
func WriteParquet(w io.Writer, objects []*model.CatalogObject) error {
	pw := parquet.NewGenericWriter[objectRow](w)

	rows := make([]objectRow, 0, min(len(objects), parquetBatch))
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("WriteParquet: write rows: %w", err)
		}
		rows = rows[:0]
		return nil
	}

	for _, obj := range objects {
		rows = append(rows, objectToRow(obj))
		if len(rows) == parquetBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("WriteParquet: close: %w", err)
	}
	return nil
}

func objectToRow(obj *model.CatalogObject) objectRow {
	row := objectRow{
		ID:            obj.ID,
		Type:          string(obj.Type),
		RA:            obj.RA,
		Dec:           obj.Dec,
		Subcomponents: obj.Subcomponents,
	}

	names := make([]string, 0, len(obj.Attributes))
	for name := range obj.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row.Attributes = append(row.Attributes, attributeRow{Name: name, Value: obj.Attributes[name]})
	}

	components := make([]string, 0, len(obj.SEDs))
	for c := range obj.SEDs {
		components = append(components, c)
	}
	sort.Strings(components)
	for _, c := range components {
		sed := obj.SEDs[c]
		row.SEDs = append(row.SEDs, sedRow{
			Component:   c,
			MagNorm:     sed.MagNorm,
			Wavelengths: sed.Wavelengths,
			FLambda:     sed.FLambda,
		})
	}
	return row
}
