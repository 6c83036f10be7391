// Package ports declares the outbound contracts of the dispatch engine:
// persistence repositories, the unit of work, the job queue, the zone lock,
// travel estimation, and notification channels. Adapters under
// internal/adapters implement them.
package ports
