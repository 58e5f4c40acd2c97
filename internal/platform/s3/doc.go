// Package s3 mirrors produced image variants to an S3 bucket or any
// S3-compatible service such as MinIO.
package s3
