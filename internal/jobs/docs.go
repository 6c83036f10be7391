// Package jobs provides the background machinery of the dispatch engine.
//
// Three queue topics are consumed here:
//
//  1. optimize-deliveries - runs a dispatch cycle (zone grouping, route
//     planning, driver claiming) for one zone or all zones
//  2. kitchen-order - moves confirmed orders into preparation, retrying with
//     backoff while the kitchen is at capacity
//  3. notification - fans lifecycle events out to customer channels
//
// A cron scheduler (github.com/robfig/cron/v3) enqueues the periodic
// optimization trigger, so the cycle itself still flows through the queue and
// inherits its retry semantics.
//
// Jobs are managed through JobManager:
//
//	jobManager := jobs.NewJobManager(queue, optimizeHandler, startPrepHandler, router, "*/15 * * * * *", logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal(err)
//	}
//	defer jobManager.StopAll()
//
// All workers are idempotent: the queue guarantees at-least-once delivery,
// and redeliveries of already-applied work are dropped, not failed.
package jobs
