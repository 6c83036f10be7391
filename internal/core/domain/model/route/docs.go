// Package route contains the Route aggregate: an ordered stop sequence inside
// one delivery zone with estimated travel totals, committed to a driver by the
// dispatch engine.
package route
