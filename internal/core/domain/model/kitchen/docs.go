// Package kitchen contains the Kitchen aggregate and its live capacity
// snapshot. Load is always derived from order statuses, never cached on the
// aggregate.
package kitchen
