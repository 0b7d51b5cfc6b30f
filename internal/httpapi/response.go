package httpapi

import (
	"errors"
	"net/http"

	"smart-shopping-list/internal/app"
	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/shopping"

	"github.com/gin-gonic/gin"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func errorEnvelope(msg, code string) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
}

func respondError(c *gin.Context, err error) {
	status, code := http.StatusBadRequest, "bad_request"
	switch {
	case errors.Is(err, shopping.ErrListNotFound), errors.Is(err, shopping.ErrItemNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, app.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, ingest.ErrNoProposal):
		status, code = http.StatusConflict, "no_proposal"
	case errors.Is(err, ingest.ErrProposalChanged):
		status, code = http.StatusConflict, "proposal_changed"
	case errors.Is(err, shopping.ErrStaleWrite):
		status, code = http.StatusConflict, "stale_write"
	case errors.Is(err, ingest.ErrClosed):
		status, code = http.StatusServiceUnavailable, "closed"
	case errors.Is(err, app.ErrMetricsDisabled):
		status, code = http.StatusNotImplemented, "metrics_disabled"
	}
	c.JSON(status, errorEnvelope(err.Error(), code))
}
