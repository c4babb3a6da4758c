package zipgeo

import (
	"time"

	"github.com/medroute/medroute/internal/platform/geo"
)

// ZipGeo maps to the zip_geo table. One row per ZIP code centroid.
type ZipGeo struct {
	Zip       string    `db:"zip" json:"zip"`
	Lat       float64   `db:"lat" json:"lat"`
	Lng       float64   `db:"lng" json:"lng"`
	City      *string   `db:"city" json:"city,omitempty"`
	State     *string   `db:"state" json:"state,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Point returns the centroid as a geo.Point.
func (z *ZipGeo) Point() geo.Point {
	return geo.Point{Lat: z.Lat, Lng: z.Lng}
}
