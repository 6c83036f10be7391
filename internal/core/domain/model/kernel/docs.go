// Package kernel provides core domain primitives shared by every aggregate in
// the dispatch engine.
//
// The package includes:
//   - UUID: a value object for unique identifiers with validation and comparison
//   - GeoPoint: a validated WGS84 coordinate pair with haversine distance
//
// These primitives are immutable and thread-safe. They enforce their
// invariants at construction so downstream code never handles half-built
// values.
package kernel
