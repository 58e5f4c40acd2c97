// Package mongo implements the task and image stores on MongoDB.
//
// Tasks live in the "tasks" collection and image records in "images". Both
// use ObjectID primary keys exposed to callers as 24-character hex strings.
// Malformed IDs are treated as unknown rather than as client errors.
package mongo
