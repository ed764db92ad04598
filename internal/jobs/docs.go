// Package jobs provides scheduled background tasks for the restaurant service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Schedules are six-field expressions with a leading seconds field.
//
// # Available Jobs
//
// 1. OutboxRelayJob - publishes domain events stored in the outbox to Kafka
// 2. DailySummaryJob - logs the day's order counts and revenue
//
// # Usage
//
//	jobManager := jobs.NewJobManager(
//		jobs.NewOutboxRelayJob(outbox, publisher, metrics, "* * * * * *", logger),
//		jobs.NewDailySummaryJob(dailyOrders, "0 0 23 * * *", time.Local, logger),
//	)
//
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A run that fails is logged and retried at the next tick. The relay skips a
// tick while the previous run is still publishing.
package jobs
