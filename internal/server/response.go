package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-scannergen/pkg/bundle"
	"github.com/goliatone/go-scannergen/pkg/render"
	"github.com/goliatone/go-scannergen/pkg/service"
	"github.com/goliatone/go-scannergen/pkg/store"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error codes carried in the envelope.
const (
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
	CodeInternal       = "internal"
)

func respondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// fail maps domain errors onto status codes.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrUnknownQuestion):
		respondError(c, http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, errInvalidBody),
		errors.Is(err, bundle.ErrDecode),
		errors.Is(err, service.ErrInvalidAnswer),
		errors.Is(err, render.ErrUnknownRenderer),
		errors.Is(err, render.ErrUnknownTheme),
		errors.Is(err, errBadRequest):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, CodeInternal, err)
	}
}

var errBadRequest = errors.New("bad request")
