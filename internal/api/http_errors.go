package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
)

// errorBody is the JSON shape for domain-error responses. The code is
// stable; the frontend dispatches on it.
type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatAuth:
		return http.StatusUnauthorized, true
	case core.ErrCatEntitlement:
		return http.StatusForbidden, true
	case core.ErrCatState:
		return http.StatusConflict, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatNetwork:
		return http.StatusServiceUnavailable, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps a domain error onto an HTTP status and a
// structured body. Non-domain errors become a plain 500.
func respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var domErr *core.DomainError
	errors.As(err, &domErr)
	respondJSON(w, status, errorBody{
		Code:    domErr.Code,
		Message: domErr.Message,
		Details: domErr.Details,
	})
}
