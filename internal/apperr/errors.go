// Package apperr holds the error markers shared by the analysis pipeline and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrProcessingFailed    = errors.New("processing failed")
	ErrExternalUnavailable = errors.New("external capability unavailable")
)

// Wrap tags err with marker so callers can classify it with errors.Is while keeping
// the underlying cause in the message.
func Wrap(marker error, operation string, err error) error {
	if marker == nil {
		marker = ErrProcessingFailed
	}
	operation = strings.TrimSpace(operation)
	switch {
	case err != nil && operation != "":
		return fmt.Errorf("%w: %s: %w", marker, operation, err)
	case err != nil:
		return fmt.Errorf("%w: %w", marker, err)
	case operation != "":
		return fmt.Errorf("%w: %s", marker, operation)
	default:
		return marker
	}
}

// HTTPStatus maps an error to the response status the API reports for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
