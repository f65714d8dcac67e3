package handlers

import (
	"errors"
	"net/http"

	"github.com/Hexix23/webhook-catcher-workers/common/httputil"
	"github.com/Hexix23/webhook-catcher-workers/internal/eventkey"
	"github.com/Hexix23/webhook-catcher-workers/internal/service"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
	"github.com/Hexix23/webhook-catcher-workers/internal/validator"
)

// Error codes reported in the "error" field of rejected requests.
const (
	CodeInvalidJSON        = "InvalidJson"
	CodeNotObject          = "NotObject"
	CodeNestedValue        = "NestedValue"
	CodeInvalidNamespace   = "InvalidNamespace"
	CodeInvalidCursor      = "InvalidCursor"
	CodeInvalidRequest     = "InvalidRequest"
	CodeForbiddenNamespace = "ForbiddenNamespace"
	CodePayloadTooLarge    = "PayloadTooLarge"
	CodeRateLimited        = "RateLimited"
	CodeStoreUnavailable   = "StoreUnavailable"
	CodeNotFound           = "NotFound"
	CodeInternal           = "InternalError"
)

// classify maps a service error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, validator.ErrInvalidJSON):
		return http.StatusBadRequest, CodeInvalidJSON
	case errors.Is(err, validator.ErrNotObject):
		return http.StatusBadRequest, CodeNotObject
	case errors.Is(err, validator.ErrNestedValue):
		return http.StatusBadRequest, CodeNestedValue
	case errors.Is(err, eventkey.ErrInvalidNamespace):
		return http.StatusBadRequest, CodeInvalidNamespace
	case errors.Is(err, store.ErrInvalidCursor):
		return http.StatusBadRequest, CodeInvalidCursor
	case errors.Is(err, service.ErrForbiddenNamespace):
		return http.StatusForbidden, CodeForbiddenNamespace
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, CodeStoreUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	httputil.WriteError(w, status, code, err.Error())
}
