package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ErrNoCandidateRoute is returned when no driver in the zone can be given a
// route: either every order lacks a travel estimate or no driver produced a
// plannable candidate. The optimization cycle treats this as an empty result,
// not a fault.
var ErrNoCandidateRoute = errors.New("no candidate route could be planned")

// Candidate is one planned route proposal: the driver it was planned for, the
// uncommitted route, and the orders left out because no travel estimate was
// available for them.
type Candidate struct {
	Driver  *driver.Driver
	Route   *route.Route
	Skipped []kernel.UUID
}

// RouteOptimizer is a domain service that plans delivery routes with a greedy
// nearest-neighbor walk.
//
// The algorithm minimizes immediate travel duration at each step. It does not
// attempt global optimization; determinism and predictability are preferred
// over optimality.
//
// Business rules:
//   - planning starts from the driver's current position
//   - the next stop is always the unvisited order with the shortest travel
//     duration, ties broken by lowest order id
//   - an order with no travel estimate is skipped, never fatal for the cycle
//   - a route never exceeds the configured stop limit
type RouteOptimizer struct {
	distances ports.DistanceProvider
	maxStops  int
}

// NewRouteOptimizer creates an optimizer over the given travel estimator.
// maxStops bounds route length and must be positive.
func NewRouteOptimizer(distances ports.DistanceProvider, maxStops int) (RouteOptimizer, error) {
	if distances == nil {
		return RouteOptimizer{}, errs.NewValueIsRequiredError("distances")
	}
	if maxStops < 1 {
		return RouteOptimizer{}, errs.NewValueIsOutOfRangeError("maxStops", maxStops, 1, 100)
	}

	return RouteOptimizer{distances: distances, maxStops: maxStops}, nil
}

// PlanRoute builds a candidate route for one driver over the zone's
// dispatchable orders. Returns ErrNoCandidateRoute when no stop can be
// planned, either because the order list is empty or because every order had
// to be skipped. Callers treat that as the empty route with zero travel, not
// as a fault.
func (ro RouteOptimizer) PlanRoute(
	ctx context.Context,
	zone string,
	d *driver.Driver,
	orders []*order.Order,
) (Candidate, error) {
	if err := d.Validate(); err != nil {
		return Candidate{}, err
	}

	remaining := make(map[string]*order.Order, len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return Candidate{}, err
		}
		remaining[o.ID().String()] = o
	}

	var (
		stops         []route.Stop
		skipped       []kernel.UUID
		totalMeters   float64
		totalDuration time.Duration
	)

	current := d.Location()

	for len(remaining) > 0 && len(stops) < ro.maxStops {
		next, result, err := ro.nearest(ctx, current, remaining, &skipped)
		if err != nil {
			return Candidate{}, err
		}
		if next == nil {
			break
		}

		stop, err := route.NewStop(next.ID(), next.Address().Location())
		if err != nil {
			return Candidate{}, err
		}

		stops = append(stops, stop)
		totalMeters += result.DistanceMeters
		totalDuration += result.Duration
		current = next.Address().Location()
		delete(remaining, next.ID().String())
	}

	if len(stops) == 0 {
		return Candidate{}, ErrNoCandidateRoute
	}

	planned, err := route.NewRoute(kernel.NewUUID(), zone, stops, totalMeters, totalDuration)
	if err != nil {
		return Candidate{}, err
	}

	return Candidate{Driver: d, Route: planned, Skipped: skipped}, nil
}

// BestCandidate plans one candidate per available driver and returns the one
// with the lowest total travel duration, ties broken by lowest driver id.
// Returns ErrNoCandidateRoute when no driver yields a plannable route.
func (ro RouteOptimizer) BestCandidate(
	ctx context.Context,
	zone string,
	drivers []*driver.Driver,
	orders []*order.Order,
) (Candidate, error) {
	var (
		best  Candidate
		found bool
	)

	for _, d := range drivers {
		candidate, err := ro.PlanRoute(ctx, zone, d, orders)
		if errors.Is(err, ErrNoCandidateRoute) {
			continue
		}
		if err != nil {
			return Candidate{}, err
		}

		if !found || betterCandidate(candidate, best) {
			best = candidate
			found = true
		}
	}

	if !found {
		return Candidate{}, ErrNoCandidateRoute
	}

	return best, nil
}

// EstimateTotals sums the travel legs from the starting position through the
// stops in sequence. Used to re-price a planned route after stops were
// dropped.
func (ro RouteOptimizer) EstimateTotals(
	ctx context.Context,
	from kernel.GeoPoint,
	stops []route.Stop,
) (float64, time.Duration, error) {
	var (
		totalMeters   float64
		totalDuration time.Duration
	)

	current := from
	for _, stop := range stops {
		result, err := ro.distances.GetDistance(ctx, current, stop.Location())
		if err != nil {
			return 0, 0, err
		}

		totalMeters += result.DistanceMeters
		totalDuration += result.Duration
		current = stop.Location()
	}

	return totalMeters, totalDuration, nil
}

// nearest picks the unvisited order with the shortest travel duration from
// the current position. Orders without an estimate are recorded in skipped
// and dropped from the walk. Returns a nil order when nothing is reachable.
func (ro RouteOptimizer) nearest(
	ctx context.Context,
	from kernel.GeoPoint,
	remaining map[string]*order.Order,
	skipped *[]kernel.UUID,
) (*order.Order, ports.DistanceResult, error) {
	ids := make([]string, 0, len(remaining))
	for id := range remaining {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		best       *order.Order
		bestResult ports.DistanceResult
	)

	for _, id := range ids {
		o := remaining[id]

		result, err := ro.distances.GetDistance(ctx, from, o.Address().Location())
		if errors.Is(err, ports.ErrDistanceUnavailable) {
			*skipped = append(*skipped, o.ID())
			delete(remaining, id)
			continue
		}
		if err != nil {
			return nil, ports.DistanceResult{}, err
		}

		// Strict less keeps the lowest order id on equal durations because
		// ids are visited in sorted order.
		if best == nil || result.Duration < bestResult.Duration {
			best = o
			bestResult = result
		}
	}

	return best, bestResult, nil
}

func betterCandidate(a, b Candidate) bool {
	if a.Route.TotalDuration() != b.Route.TotalDuration() {
		return a.Route.TotalDuration() < b.Route.TotalDuration()
	}
	return a.Driver.ID().String() < b.Driver.ID().String()
}
