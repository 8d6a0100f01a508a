package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/service"
	"github.com/MKhiriev/wallet-cloud-sync/internal/store"
	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
)

// Error codes carried in models.ErrorResponse.Code.
const (
	codeContainerNotFound = "container_not_found"
	codeInvalidRequest    = "invalid_request"
	codeUnauthorized      = "unauthorized"
	codeLoginTaken        = "login_taken"
	codeUnavailable       = "account_unavailable"
	codeInternal          = "internal_error"

	retryAfterUnavailable = 5
)

type errorMapping struct {
	status int
	code   string
}

// errorStatusList is checked in order; the first errors.Is match wins.
var errorStatusList = []struct {
	target error
	errorMapping
}{
	{store.ErrContainerNotFound, errorMapping{http.StatusNotFound, codeContainerNotFound}},
	{store.ErrInvalidCursor, errorMapping{http.StatusBadRequest, codeInvalidRequest}},
	{service.ErrValidation, errorMapping{http.StatusBadRequest, codeInvalidRequest}},
	{service.ErrInvalidDataProvided, errorMapping{http.StatusBadRequest, codeInvalidRequest}},
	{service.ErrWrongPassword, errorMapping{http.StatusUnauthorized, codeUnauthorized}},
	{store.ErrNoUserWasFound, errorMapping{http.StatusUnauthorized, codeUnauthorized}},
	{service.ErrTokenIsExpiredOrInvalid, errorMapping{http.StatusUnauthorized, codeUnauthorized}},
	{store.ErrLoginAlreadyExists, errorMapping{http.StatusConflict, codeLoginTaken}},
	{service.ErrStoreUnavailable, errorMapping{http.StatusServiceUnavailable, codeUnavailable}},
}

func mapError(err error) errorMapping {
	for _, m := range errorStatusList {
		if errors.Is(err, m.target) {
			return m.errorMapping
		}
	}
	return errorMapping{http.StatusInternalServerError, codeInternal}
}

// writeServiceError logs err and answers with its mapped status. Internal
// failures never leak their message to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromRequest(r)

	m := mapError(err)
	message := err.Error()
	if m.status == http.StatusInternalServerError {
		log.Err(err).Msg("request failed")
		message = http.StatusText(http.StatusInternalServerError)
	} else {
		log.Warn().Err(err).Int("status", m.status).Msg("request rejected")
	}

	if m.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterUnavailable))
	}

	utils.WriteError(w, m.status, m.code, message)
}
