// Package imagesource turns an image reference into a local file that the
// transform pipeline can read.
//
// A reference is either a local filesystem path or an http(s) URL. Remote
// references are downloaded into a scoped temporary directory under a random
// name; uploaded bodies are staged the same way. Every temporary file handed
// out by this package is owned by the caller, who releases it with Cleanup.
package imagesource
