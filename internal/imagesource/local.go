package imagesource

import (
	"os"

	"github.com/kenyilewis/imgtask/internal/domain"
)

// AcquireLocal checks that ref names an existing regular file and returns it
// unchanged. Any stat failure or non-regular file yields domain.ErrInvalidPath.
func (r *Resolver) AcquireLocal(ref string) (string, error) {
	info, err := os.Stat(ref)
	if err != nil {
		invalid := domain.NewInvalidPathError(ref)
		invalid.Err = err
		return "", invalid
	}

	if !info.Mode().IsRegular() {
		return "", domain.NewInvalidPathError(ref)
	}

	return ref, nil
}
