// Package locate finds the best visual cluster for a target signature and
// correlates it back to a tracked identity.
package locate

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/hunter/internal/game/geom"
	"github.com/cory-johannsen/hunter/internal/game/sensors"
	"github.com/cory-johannsen/hunter/internal/game/target"
)

// Config holds the correlation acceptance tuning.
//
// The acceptance gate is max(FloorPx, clusterSize*SizeFactor); both values
// are empirically tuned, not contractual.
type Config struct {
	// FloorPx is the minimum acceptable center-distance in pixels.
	FloorPx int
	// SizeFactor scales the cluster's longest side into an acceptable
	// center-distance.
	SizeFactor float64
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{FloorPx: 12, SizeFactor: 0.5}
}

// Locator searches a projected world region for signature clusters and
// resolves the winning cluster to a tracked identity.
//
// Invariant: screen is non-nil.
type Locator struct {
	screen sensors.Screen
	cfg    Config
}

// NewLocator constructs a Locator.
//
// Precondition: screen must not be nil.
func NewLocator(screen sensors.Screen, cfg Config) *Locator {
	if screen == nil {
		panic("locate.NewLocator: screen must not be nil")
	}
	return &Locator{screen: screen, cfg: cfg}
}

// Locate returns the largest cluster matching sig inside the projection of
// region.
//
// Postcondition: Returns (bounds, true) for the largest matching cluster,
// or (zero, false) when the region is off-screen or no cluster matches.
func (l *Locator) Locate(region geom.Region, sig target.Signature) (geom.ScreenBounds, bool) {
	screenRegion, ok := l.screen.ProjectRegion(region)
	if !ok {
		return geom.ScreenBounds{}, false
	}
	clusters := l.screen.FindClusters(screenRegion, sig)
	if len(clusters) == 0 {
		return geom.ScreenBounds{}, false
	}
	best := clusters[0]
	for _, c := range clusters[1:] {
		if c.Area() > best.Area() {
			best = c
		}
	}
	return best, true
}

// Correlate resolves cluster to one of the active identities. Suppressed
// identities (post-kill locked) are excluded. For every remaining candidate
// the identity's tile is projected to screen bounds; the candidate with the
// largest intersection with the cluster wins, ties broken by smaller
// center-distance. The winner is accepted only when its intersection is
// positive or its center-distance is within the acceptance gate — an
// ambiguous cluster yields no match, and the caller waits another tick.
//
// Precondition: suppressed must not be nil.
// Postcondition: Returns (id, true) for an accepted candidate, or
// (uuid.Nil, false) when no candidate clears the gate.
func (l *Locator) Correlate(
	cluster geom.ScreenBounds,
	active map[uuid.UUID]geom.Position,
	suppressed func(uuid.UUID) bool,
) (uuid.UUID, bool) {
	var (
		bestID       uuid.UUID
		found        bool
		bestOverlap  int
		bestDistance float64
	)

	for id, pos := range active {
		if suppressed(id) {
			continue
		}
		bounds, ok := l.screen.ProjectPosition(pos)
		if !ok {
			continue
		}
		overlap := cluster.Intersection(bounds)
		distance := cluster.CenterDistance(bounds)
		if !found || overlap > bestOverlap || (overlap == bestOverlap && distance < bestDistance) {
			bestID = id
			found = true
			bestOverlap = overlap
			bestDistance = distance
		}
	}

	if !found {
		return uuid.Nil, false
	}
	if bestOverlap > 0 {
		return bestID, true
	}
	gate := float64(l.cfg.FloorPx)
	if scaled := float64(cluster.LongestSide()) * l.cfg.SizeFactor; scaled > gate {
		gate = scaled
	}
	if bestDistance <= gate {
		return bestID, true
	}
	return uuid.Nil, false
}
