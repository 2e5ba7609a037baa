package model

import (
	"fmt"
	"math"
)

// ObjectType is the catalog's classification of a source.
type ObjectType string

const (
	ObjectTypeStar   ObjectType = "star"
	ObjectTypeGalaxy ObjectType = "galaxy"
)

// Galaxy subcomponent names as they appear in the catalog.
const (
	ComponentBulge = "bulge"
	ComponentDisk  = "disk"
	ComponentKnots = "knots"
)

// SEDData is the raw tabulated spectrum for one object or subcomponent.
// Wavelengths are in nm and FLambda in erg/s/cm^2/nm on an arbitrary scale;
// MagNorm places that scale on an absolute one.
type SEDData struct {
	Wavelengths []float64
	FLambda     []float64
	MagNorm     float64
}

// CatalogObject is one record of the sky catalog. Objects are immutable once
// loaded and owned by the catalog store.
type CatalogObject struct {
	ID   string
	Type ObjectType

	// Sky position in degrees.
	RA  float64
	Dec float64

	// Subcomponents lists the physical pieces of the object (bulge, disk,
	// knots). Empty for single-component objects such as stars.
	Subcomponents []string

	// Attributes holds native catalog columns keyed by column name,
	// e.g. shear_1, convergence, size_disk_true, MW_av_lsst_r.
	Attributes map[string]float64

	// SEDs is keyed by subcomponent name; "" holds the SED of an object
	// without subcomponents.
	SEDs map[string]SEDData
}

// NativeAttribute returns the named catalog column.
func (o *CatalogObject) NativeAttribute(name string) (float64, bool) {
	if o == nil || o.Attributes == nil {
		return 0, false
	}
	v, ok := o.Attributes[name]
	return v, ok
}

// SED returns the tabulated spectrum of the given subcomponent. A missing
// entry yields an infinite magnorm so callers treat it as "do not render".
func (o *CatalogObject) SED(component string) SEDData {
	if o == nil || o.SEDs == nil {
		return SEDData{MagNorm: math.Inf(1)}
	}
	sed, ok := o.SEDs[component]
	if !ok {
		return SEDData{MagNorm: math.Inf(1)}
	}
	return sed
}

func (o *CatalogObject) String() string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s)", o.Type, o.ID)
}

// Box is a rectangular RA/Dec region in degrees. RAMin > RAMax denotes a box
// that wraps through RA = 0.
type Box struct {
	RAMin, RAMax   float64
	DecMin, DecMax float64
}

// Contains reports whether (ra, dec) lies inside the box, edges included.
func (b Box) Contains(ra, dec float64) bool {
	if dec < b.DecMin || dec > b.DecMax {
		return false
	}
	if b.RAMin <= b.RAMax {
		return ra >= b.RAMin && ra <= b.RAMax
	}
	return ra >= b.RAMin || ra <= b.RAMax
}
