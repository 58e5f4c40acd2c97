package api

import (
	"errors"
	"net/http"

	"github.com/kenyilewis/imgtask/internal/domain"
)

// Messages for failures the service layer does not classify.
const (
	msgInternalError       = "Internal server error"
	msgInvalidContentType  = "Content-Type must be either multipart/form-data or application/json"
	msgInvalidJSON         = "Invalid request format"
	msgImagePathRequired   = "imagePath is required when using application/json"
	msgFileRequired        = "File is required when using multipart/form-data"
	msgImagePathNotAllowed = "imagePath is not allowed when using multipart/form-data. Use file field instead"
	msgOnlyImages          = "Only image files are allowed"
	msgInvalidMultipart    = "Invalid multipart request"
)

// MapErrorToStatusCode maps service errors to HTTP status codes. Source
// problems are the caller's fault, unknown tasks are 404 and anything else
// is an internal error.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrDownloadFailed):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the message sent to clients for err.
// Classified client errors keep their own message; everything else is
// replaced by a generic one.
func GetSafeErrorMessage(err error) string {
	if err == nil || !domain.IsClientError(err) {
		return msgInternalError
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// respondWithServiceError writes the response for an error returned by the
// task service.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	respondError(w, r, status, GetSafeErrorMessage(err), err)
}
