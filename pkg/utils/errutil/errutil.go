package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// Handle logs the error with a message and reports it to Sentry when a
// Sentry client has been initialized. The error is returned as-is.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	report(ctx, err)
	return err
}

// HandleHTTP logs the error and writes a JSON error response. Only 5xx
// errors are sent to Sentry and their details are not exposed to clients;
// 4xx are user errors and carry the error message.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)
	message := err.Error()

	if statusCode >= http.StatusInternalServerError {
		var ge *goerr.Error
		if errors.As(err, &ge) {
			logger.Error("HTTP error",
				"status", statusCode,
				"error", err.Error(),
				"values", ge.Values(),
				"stack", ge.Stacks(),
			)
		} else {
			logger.Error("HTTP error",
				"status", statusCode,
				"error", err.Error(),
			)
		}
		report(ctx, err)
		message = http.StatusText(statusCode)
	} else {
		logger.Info("HTTP client error", "status", statusCode, "error", err.Error())
	}

	body, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func report(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub = hub.Clone()
	var ge *goerr.Error
	if errors.As(err, &ge) {
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext("values", sentry.Context(ge.Values()))
		})
	}
	hub.CaptureException(err)
}
