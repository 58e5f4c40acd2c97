// Package transform produces the fixed-width variants of a source image.
//
// Each variant is resized to fit a width bound without upscaling, encoded in
// the format implied by the source extension, hashed with MD5 and written to
// {outputDir}/{base}/{width}/{md5}{ext}.
package transform
