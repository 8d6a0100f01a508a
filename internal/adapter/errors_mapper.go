package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/go-resty/resty/v2"
)

// CodeContainerNotFound is the error code the server sends with a 404 for a
// container that does not exist.
const CodeContainerNotFound = "container_not_found"

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	var apiErr models.ErrorResponse
	if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Message != "" {
		body = apiErr.Message
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", retry.ErrAuthRequired, body)
	case http.StatusNotFound:
		if apiErr.Code == CodeContainerNotFound {
			return fmt.Errorf("%w: %s", retry.ErrContainerMissing, body)
		}
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", retry.ErrConflict, body)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		err := fmt.Errorf("%w: %s", retry.ErrTransientAccount, body)
		return retry.WithHint(err, parseRetryAfter(resp.Header().Get("Retry-After"), time.Now()))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", ErrInternalServerError, body)
	}

	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
}

// mapAuthError maps failures of the account endpoints, where 401 and 409
// mean wrong credentials and a taken login rather than sync failures.
func mapAuthError(resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusConflict:
		return ErrLoginAlreadyExists
	}
	return mapHTTPError(resp)
}

// parseRetryAfter reads delay-seconds or an HTTP date. Unparseable or past
// values give zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}
