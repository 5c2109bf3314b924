package httpx

import (
	"log/slog"
	"net/http"

	"github.com/jms-erp/jms/internal/shared"
)

// RespondError maps a read-path error to a response. Missing records become 404.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	respond(w, logger, err, http.StatusNotFound)
}

// RespondWriteError maps a write-path error to a response. Everything the caller
// can fix, including references to missing records and shortfalls, becomes 400.
func RespondWriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	respond(w, logger, err, http.StatusBadRequest)
}

func respond(w http.ResponseWriter, logger *slog.Logger, err error, notFoundStatus int) {
	status := StatusFor(err, notFoundStatus)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.Any("error", err))
	}
	Error(w, status, shared.Message(err))
}

// StatusFor returns the HTTP status for err, using notFoundStatus for missing records.
func StatusFor(err error, notFoundStatus int) int {
	switch shared.KindOf(err) {
	case shared.KindValidation, shared.KindInsufficient:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return notFoundStatus
	case shared.KindConflict:
		return http.StatusConflict
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
