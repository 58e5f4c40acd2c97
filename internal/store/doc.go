// Package store defines interfaces for task and image persistence.
// These interfaces abstract the underlying data storage mechanism from
// the lifecycle engine, allowing it to run unchanged on top of postgres,
// mongo or redis backends.
package store
