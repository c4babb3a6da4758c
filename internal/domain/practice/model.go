package practice

import (
	"time"

	"github.com/google/uuid"

	"github.com/medroute/medroute/internal/platform/geo"
)

// Practice statuses.
const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// Practice maps to the practice table. Each practice is a physical clinic
// with a service radius centered on its coordinates. Coordinates may be
// absent, which makes the practice unmappable: it never participates in
// routing but can still be booked directly.
type Practice struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Zip         string    `db:"zip" json:"zip"`
	Lat         *float64  `db:"lat" json:"lat,omitempty"`
	Lng         *float64  `db:"lng" json:"lng,omitempty"`
	RadiusMiles float64   `db:"radius_miles" json:"radius_miles"`
	Timezone    string    `db:"timezone" json:"timezone"`
	Status      string    `db:"status" json:"status"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Mappable reports whether the practice has both coordinates.
func (p *Practice) Mappable() bool {
	return p.Lat != nil && p.Lng != nil
}

// Location returns the practice coordinates as a geo.Point. Only valid when
// Mappable reports true.
func (p *Practice) Location() geo.Point {
	return geo.Point{Lat: *p.Lat, Lng: *p.Lng}
}
