package routing

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/medroute/medroute/internal/domain/practice"
	"github.com/medroute/medroute/internal/platform/geo"
)

var testCfg = Config{BufferMiles: 1, NearMissMiles: 2}

func floatPtr(f float64) *float64 { return &f }

func testPractice(name string, lat, lng, radius float64) *practice.Practice {
	return &practice.Practice{
		ID:          uuid.New(),
		Name:        name,
		Lat:         floatPtr(lat),
		Lng:         floatPtr(lng),
		RadiusMiles: radius,
		Status:      practice.StatusActive,
		Timezone:    "America/New_York",
	}
}

func TestResolve_ZipNotFound(t *testing.T) {
	practices := []*practice.Practice{testPractice("P", 33.7, -84.3, 10)}

	r := Resolve("99999", nil, practices, testCfg)

	if r.Outcome != OutcomeDesignation {
		t.Errorf("expected designation, got %s", r.Outcome)
	}
	if r.Reason != ReasonZipNotFound {
		t.Errorf("expected zip_not_found, got %s", r.Reason)
	}
	if r.PracticeID != nil {
		t.Error("expected nil practice id")
	}
	if r.Snapshot.Zip != "99999" {
		t.Errorf("snapshot zip = %s", r.Snapshot.Zip)
	}
	if r.Snapshot.Evaluated != 0 {
		t.Errorf("expected no practices evaluated, got %d", r.Snapshot.Evaluated)
	}
}

func TestResolve_SingleMatchAssigned(t *testing.T) {
	p := testPractice("Atlanta Clinic", 33.7, -84.3, 10)

	// About 6.9 miles due north of the practice.
	zipPt := &geo.Point{Lat: 33.8, Lng: -84.3}

	r := Resolve("30305", zipPt, []*practice.Practice{p}, testCfg)

	if r.Outcome != OutcomeAssigned {
		t.Fatalf("expected assigned, got %s (%s)", r.Outcome, r.Reason)
	}
	if r.Reason != ReasonInRadius {
		t.Errorf("expected in_radius, got %s", r.Reason)
	}
	if r.PracticeID == nil || *r.PracticeID != p.ID {
		t.Error("expected assignment to the matching practice")
	}

	if len(r.Snapshot.Matches) != 1 {
		t.Fatalf("expected 1 match in snapshot, got %d", len(r.Snapshot.Matches))
	}
	raw := geo.DistanceMiles(*zipPt, p.Location())
	if got := r.Snapshot.Matches[0].DistanceMiles; got != geo.RoundMiles(raw) {
		t.Errorf("snapshot distance %v, want rounded %v", got, geo.RoundMiles(raw))
	}
}

func TestResolve_MultipleMatchesEscalate(t *testing.T) {
	a := testPractice("Clinic A", 33.7, -84.3, 20)
	b := testPractice("Clinic B", 33.9, -84.4, 20)
	zipPt := &geo.Point{Lat: 33.8, Lng: -84.35}

	r := Resolve("30309", zipPt, []*practice.Practice{a, b}, testCfg)

	if r.Outcome != OutcomeDesignation {
		t.Fatalf("expected designation, got %s", r.Outcome)
	}
	if r.Reason != ReasonMultipleProvidersMatch {
		t.Errorf("expected multiple_providers_match, got %s", r.Reason)
	}
	if r.PracticeID != nil {
		t.Error("expected nil practice id despite both being geometrically valid")
	}
	if len(r.Snapshot.Matches) != 2 {
		t.Errorf("expected 2 matches in snapshot, got %d", len(r.Snapshot.Matches))
	}
}

func TestResolve_NearMiss(t *testing.T) {
	// Zip ~6.9 miles from the practice; radius 5 + buffer 1 = 6 effective,
	// near-miss band (6, 8].
	p := testPractice("Edge Clinic", 33.7, -84.3, 5)
	zipPt := &geo.Point{Lat: 33.8, Lng: -84.3}

	r := Resolve("30306", zipPt, []*practice.Practice{p}, testCfg)

	if r.Outcome != OutcomeDesignation {
		t.Fatalf("expected designation, got %s", r.Outcome)
	}
	if r.Reason != ReasonNearMiss {
		t.Errorf("expected near_miss, got %s", r.Reason)
	}
	if r.PracticeID != nil {
		t.Error("near misses must never auto-assign")
	}
	if len(r.Snapshot.NearMisses) != 1 {
		t.Errorf("expected 1 near miss in snapshot, got %d", len(r.Snapshot.NearMisses))
	}
}

func TestResolve_NoProviderInRadius(t *testing.T) {
	// Spec'd geometry: practice at (33.7,-84.3) radius 10, zip centroid at
	// (33.9,-84.5) is about 15.3 miles out. Near-miss band is (11, 13], so
	// the outcome is a plain no-provider designation.
	p := testPractice("P", 33.7, -84.3, 10)
	zipPt := &geo.Point{Lat: 33.9, Lng: -84.5}

	raw := geo.DistanceMiles(*zipPt, p.Location())
	if raw < 15 || raw > 16 {
		t.Fatalf("test geometry drifted: distance %v", raw)
	}

	r := Resolve("30188", zipPt, []*practice.Practice{p}, testCfg)

	if r.Reason != ReasonNoProviderInRadius {
		t.Fatalf("expected no_provider_in_radius, got %s", r.Reason)
	}
	if len(r.Snapshot.Nearest) != 1 {
		t.Fatalf("expected the practice in the nearest list")
	}
	if r.Snapshot.Nearest[0].EffectiveRadius != 11 {
		t.Errorf("effective radius = %v, want 11", r.Snapshot.Nearest[0].EffectiveRadius)
	}
	if r.Snapshot.Nearest[0].NearMissThreshold != 13 {
		t.Errorf("near-miss threshold = %v, want 13", r.Snapshot.Nearest[0].NearMissThreshold)
	}
}

func TestResolve_SkipsPausedAndUnmappable(t *testing.T) {
	paused := testPractice("Paused", 33.8, -84.3, 50)
	paused.Status = practice.StatusPaused

	unmappable := testPractice("Unmappable", 0, 0, 50)
	unmappable.Lat = nil
	unmappable.Lng = nil

	zipPt := &geo.Point{Lat: 33.8, Lng: -84.3}

	r := Resolve("30307", zipPt, []*practice.Practice{paused, unmappable}, testCfg)

	if r.Reason != ReasonNoProviderInRadius {
		t.Errorf("expected no_provider_in_radius, got %s", r.Reason)
	}
	if r.Snapshot.Evaluated != 0 {
		t.Errorf("expected 0 evaluated, got %d", r.Snapshot.Evaluated)
	}
}

func TestResolve_NearestCappedAndSorted(t *testing.T) {
	zipPt := &geo.Point{Lat: 33.8, Lng: -84.3}
	var practices []*practice.Practice
	for i := 0; i < 8; i++ {
		// Increasing distance as i grows; tiny radius so none match.
		practices = append(practices, testPractice(
			fmt.Sprintf("Clinic %d", i), 34.2+float64(i)*0.1, -84.3, 0.1))
	}

	r := Resolve("30308", zipPt, practices, testCfg)

	if len(r.Snapshot.Nearest) != 5 {
		t.Fatalf("expected nearest list capped at 5, got %d", len(r.Snapshot.Nearest))
	}
	for i := 1; i < len(r.Snapshot.Nearest); i++ {
		if r.Snapshot.Nearest[i].DistanceMiles < r.Snapshot.Nearest[i-1].DistanceMiles {
			t.Fatal("nearest list not sorted ascending")
		}
	}
	if r.Snapshot.Evaluated != 8 {
		t.Errorf("expected 8 evaluated, got %d", r.Snapshot.Evaluated)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	a := testPractice("Clinic A", 33.7, -84.3, 10)
	b := testPractice("Clinic B", 33.9, -84.4, 8)
	zipPt := &geo.Point{Lat: 33.8, Lng: -84.35}
	practices := []*practice.Practice{a, b}

	r1 := Resolve("30310", zipPt, practices, testCfg)
	r2 := Resolve("30310", zipPt, practices, testCfg)

	if !reflect.DeepEqual(r1, r2) {
		t.Error("identical inputs produced different results")
	}
}
