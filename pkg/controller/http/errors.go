package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/errutil"
)

var (
	errInvalidRequest  = goerr.New("invalid request")
	errEmptyBody       = goerr.New("request body is empty")
	errRequestTooLarge = goerr.New("request body too large")
	errUnauthenticated = usecase.ErrUnauthenticated
)

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, errRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, errEmptyBody),
		errors.Is(err, usecase.ErrValidation),
		errors.Is(err, model.ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrUnauthenticated),
		errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrCaseNotFound),
		errors.Is(err, usecase.ErrStepNotFound),
		errors.Is(err, usecase.ErrAttachmentNotFound),
		errors.Is(err, usecase.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrCaseClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	errutil.HandleHTTP(ctx, w, err, statusOf(err))
}

// decodeJSON reads the request body into v
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return goerr.Wrap(errRequestTooLarge, "request body exceeds limit", goerr.V("limit", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		return goerr.Wrap(errEmptyBody, "no JSON body")
	default:
		return goerr.Wrap(errInvalidRequest, "malformed JSON body", goerr.V("reason", err.Error()))
	}
}
