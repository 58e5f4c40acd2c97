// Package api handles incoming HTTP requests, request validation and
// response formatting for the task endpoints. It translates HTTP concerns
// into calls on the task service and maps classified failures to status
// codes.
package api
