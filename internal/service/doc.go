// Package service contains the task lifecycle use cases.
//
// TaskService validates image sources and persists pending tasks, runs the
// processing pipeline that moves a task to its terminal state and answers
// task queries. It depends only on the store interfaces and on small
// interfaces over the image source and the transform pipeline, never on a
// concrete database or HTTP client.
package service
