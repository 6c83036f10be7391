// Package services contains stateless domain services that coordinate
// multiple aggregates: zone grouping of delivery addresses and greedy
// nearest-neighbor route planning.
package services
