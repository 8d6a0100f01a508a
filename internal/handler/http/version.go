package http

import (
	"net/http"
)

// getServerVersion answers GET /api/version/ with the plain version string.
// The client's dashboard shows it next to its own build info.
func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	version := h.services.AppInfoService.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(version))
}
