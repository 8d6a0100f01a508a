// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
	"github.com/go-chi/chi/v5"
)

// CheckHTTPMethod is registered as the router's MethodNotAllowed handler.
// A known path with an unsupported method answers 404 instead of chi's 405,
// so callers cannot probe which container routes exist.
//
// The request is matched against the router with a fresh routing context,
// which also resolves parameterised routes such as
// /api/containers/{container}/records/query.
func CheckHTTPMethod(router *chi.Mux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !router.Match(chi.NewRouteContext(), r.Method, r.URL.Path) {
			utils.WriteError(w, http.StatusNotFound, codeInvalidRequest, "route not found")
			return
		}
		router.ServeHTTP(w, r)
	}
}
