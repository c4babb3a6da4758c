package routing

import (
	"fmt"
	"sort"

	"github.com/medroute/medroute/internal/domain/practice"
	"github.com/medroute/medroute/internal/platform/geo"
)

// maxNearest bounds the nearest-practices audit list.
const maxNearest = 5

// Config holds the routing thresholds. BufferMiles widens every practice
// radius before matching; NearMissMiles widens further to populate the
// near-miss audit band without assigning.
type Config struct {
	BufferMiles   float64
	NearMissMiles float64
}

type evaluated struct {
	p    *practice.Practice
	dist float64 // full precision, drives all comparisons
}

// Resolve computes the routing outcome for a ZIP code whose centroid is
// origin. A nil origin means the ZIP had no geocoder entry. The computation
// is pure: same inputs, same result, including the audit snapshot.
//
// Only active practices with coordinates are evaluated. Exactly one practice
// within its effective radius wins; zero or several escalate to a human.
func Resolve(zip string, origin *geo.Point, practices []*practice.Practice, cfg Config) Result {
	snap := Snapshot{
		Zip:           zip,
		Origin:        origin,
		BufferMiles:   cfg.BufferMiles,
		NearMissMiles: cfg.NearMissMiles,
		Matches:       []PracticeDistance{},
		NearMisses:    []PracticeDistance{},
		Nearest:       []PracticeDistance{},
	}

	if origin == nil {
		return Result{
			Outcome:  OutcomeDesignation,
			Reason:   ReasonZipNotFound,
			Detail:   fmt.Sprintf("no coordinate known for zip %s", zip),
			Snapshot: snap,
		}
	}

	var evals []evaluated
	for _, p := range practices {
		if p.Status != practice.StatusActive || !p.Mappable() {
			continue
		}
		evals = append(evals, evaluated{
			p:    p,
			dist: geo.DistanceMiles(*origin, p.Location()),
		})
	}
	sort.Slice(evals, func(i, j int) bool { return evals[i].dist < evals[j].dist })

	snap.Evaluated = len(evals)

	var matches, nearMisses []evaluated
	for _, e := range evals {
		effective := e.p.RadiusMiles + cfg.BufferMiles
		threshold := effective + cfg.NearMissMiles
		switch {
		case e.dist <= effective:
			matches = append(matches, e)
		case e.dist <= threshold:
			nearMisses = append(nearMisses, e)
		}
	}

	snap.Matches = auditList(matches, cfg)
	snap.NearMisses = auditList(nearMisses, cfg)
	if len(evals) > maxNearest {
		snap.Nearest = auditList(evals[:maxNearest], cfg)
	} else {
		snap.Nearest = auditList(evals, cfg)
	}

	switch {
	case len(matches) == 1:
		id := matches[0].p.ID
		return Result{
			Outcome:    OutcomeAssigned,
			PracticeID: &id,
			Reason:     ReasonInRadius,
			Detail: fmt.Sprintf("%s is %.2f miles from zip %s, within its %.2f mile effective radius",
				matches[0].p.Name, matches[0].dist, zip, matches[0].p.RadiusMiles+cfg.BufferMiles),
			Snapshot: snap,
		}
	case len(matches) >= 2:
		return Result{
			Outcome: OutcomeDesignation,
			Reason:  ReasonMultipleProvidersMatch,
			Detail: fmt.Sprintf("%d practices are within effective radius of zip %s; a coordinator must choose",
				len(matches), zip),
			Snapshot: snap,
		}
	case len(nearMisses) >= 1:
		return Result{
			Outcome: OutcomeDesignation,
			Reason:  ReasonNearMiss,
			Detail: fmt.Sprintf("no practice covers zip %s, but %d fall within the near-miss band",
				zip, len(nearMisses)),
			Snapshot: snap,
		}
	default:
		return Result{
			Outcome:  OutcomeDesignation,
			Reason:   ReasonNoProviderInRadius,
			Detail:   fmt.Sprintf("no active practice within effective radius of zip %s", zip),
			Snapshot: snap,
		}
	}
}

// auditList converts evaluated practices to snapshot entries. Distances are
// rounded here, and only here.
func auditList(evals []evaluated, cfg Config) []PracticeDistance {
	out := make([]PracticeDistance, 0, len(evals))
	for _, e := range evals {
		effective := e.p.RadiusMiles + cfg.BufferMiles
		out = append(out, PracticeDistance{
			PracticeID:        e.p.ID,
			Name:              e.p.Name,
			DistanceMiles:     geo.RoundMiles(e.dist),
			RadiusMiles:       e.p.RadiusMiles,
			EffectiveRadius:   effective,
			NearMissThreshold: effective + cfg.NearMissMiles,
		})
	}
	return out
}
