// Package domain contains the core entities of the image task service: the
// Task that tracks one processing request, the Image records produced for it,
// the task status state machine, the price value object and the error
// taxonomy shared by every layer above it.
package domain
