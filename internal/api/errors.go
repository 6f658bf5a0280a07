package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
)

// statusClientClosed is the nginx convention for a request the client abandoned.
const statusClientClosed = 499

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.InvalidInput:       http.StatusBadRequest,
	apperr.PayloadTooLarge:    http.StatusRequestEntityTooLarge,
	apperr.NotFound:           http.StatusNotFound,
	apperr.NotIndexed:         http.StatusConflict,
	apperr.StorageWriteFailed: http.StatusBadGateway,
	apperr.IndexFailed:        http.StatusBadGateway,
	apperr.GenerationFailed:   http.StatusBadGateway,
	apperr.EmptyResponse:      http.StatusBadGateway,
	apperr.StoreUnavailable:   http.StatusServiceUnavailable,
	apperr.Unknown:            http.StatusInternalServerError,
}

// statusFor maps an error to its HTTP status and error code. A classified
// error keeps its kind; context errors only decide unclassified ones.
func statusFor(err error) (int, string) {
	kind := apperr.KindOf(err)
	if kind == apperr.Unknown {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout, "timeout"
		case errors.Is(err, context.Canceled):
			return statusClientClosed, "canceled"
		}
	}
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, string(kind)
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := apperr.Message(err)
	switch code {
	case "timeout":
		msg = "request timed out"
	case "canceled":
		msg = "request canceled"
	}
	if status >= 500 {
		s.log.Error("Request failed", "path", c.FullPath(), "status", status, "code", code, "error", err)
	}
	respondError(c, status, code, msg)
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}
