// Package task runs background jobs detached from the request that started
// them. It powers the fire-and-forget processing of image tasks: a job is
// launched in its own goroutine as soon as it is dispatched, its failures are
// reported to an error handler rather than to the caller, and shutdown waits
// for jobs already in flight.
package task
