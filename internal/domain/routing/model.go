package routing

import (
	"time"

	"github.com/google/uuid"

	"github.com/medroute/medroute/internal/platform/geo"
)

// Outcome of a routing computation.
const (
	OutcomeAssigned    = "assigned"
	OutcomeDesignation = "designation"
)

// ReasonKind is the machine-readable reason for a routing outcome. Callers
// branch on the kind; the free-text detail on the result is for reviewers.
type ReasonKind string

const (
	ReasonZipNotFound            ReasonKind = "zip_not_found"
	ReasonNoProviderInRadius     ReasonKind = "no_provider_in_radius"
	ReasonNearMiss               ReasonKind = "near_miss"
	ReasonInRadius               ReasonKind = "in_radius"
	ReasonMultipleProvidersMatch ReasonKind = "multiple_providers_match"
)

// PracticeDistance is one evaluated practice in the audit snapshot. The
// distance here is rounded for presentation; outcome comparisons always use
// the full-precision value.
type PracticeDistance struct {
	PracticeID        uuid.UUID `json:"practice_id"`
	Name              string    `json:"name"`
	DistanceMiles     float64   `json:"distance_miles"`
	RadiusMiles       float64   `json:"radius_miles"`
	EffectiveRadius   float64   `json:"effective_radius"`
	NearMissThreshold float64   `json:"near_miss_threshold"`
}

// Snapshot is the immutable audit record of a single routing computation.
// It is fully reproducible from the same inputs.
type Snapshot struct {
	Zip           string             `json:"zip"`
	Origin        *geo.Point         `json:"origin,omitempty"`
	BufferMiles   float64            `json:"buffer_miles"`
	NearMissMiles float64            `json:"near_miss_miles"`
	Evaluated     int                `json:"evaluated"`
	Matches       []PracticeDistance `json:"matches"`
	NearMisses    []PracticeDistance `json:"near_misses"`
	Nearest       []PracticeDistance `json:"nearest"`
}

// Result is the outcome of one routing computation.
type Result struct {
	Outcome    string     `json:"outcome"`
	PracticeID *uuid.UUID `json:"practice_id,omitempty"`
	Reason     ReasonKind `json:"reason"`
	Detail     string     `json:"detail"`
	Snapshot   Snapshot   `json:"snapshot"`
}

// Decision maps to the routing_decision table. One row per routing call,
// snapshot stored as JSONB.
type Decision struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	LeadID     *uuid.UUID `db:"lead_id" json:"lead_id,omitempty"`
	Zip        string     `db:"zip" json:"zip"`
	Outcome    string     `db:"outcome" json:"outcome"`
	PracticeID *uuid.UUID `db:"practice_id" json:"practice_id,omitempty"`
	Reason     ReasonKind `db:"reason" json:"reason"`
	Detail     string     `db:"detail" json:"detail"`
	Snapshot   Snapshot   `db:"snapshot" json:"snapshot"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
