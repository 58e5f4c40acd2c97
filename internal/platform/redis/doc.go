// Package redis implements the task and image stores on Redis.
//
// Each task and image is a JSON document under its own key. Per-task image
// lists and an md5 index are kept alongside:
//
//	imgtask:task:{id}          task document
//	imgtask:task:{id}:images   list of image IDs, oldest first
//	imgtask:image:{id}         image document
//	imgtask:md5:{md5}          ID of the latest image with that hash
//
// Read-modify-write updates run under WATCH so concurrent writers to the
// same task never lose an update.
package redis
