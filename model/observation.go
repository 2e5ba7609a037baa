package model

import "time"

// ObservationMetadata describes a single visit.
type ObservationMetadata struct {
	// Pointing in degrees.
	PointingRA  float64
	PointingDec float64
	Epoch       time.Time
	Band        string // u, g, r, i, z or y
}

// PhotParams carries the photometric response of the camera for a visit.
type PhotParams struct {
	NExp      int     // snaps per visit
	ExpTime   float64 // seconds per snap
	Gain      float64 // electrons per ADU
	ReadNoise float64 // electrons
}

// VisitTime is the aggregate open-shutter time of the visit in seconds.
// One composite image is produced per visit, so snaps are summed.
func (p PhotParams) VisitTime() float64 {
	return float64(p.NExp) * p.ExpTime
}
