// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/service"
	"github.com/MKhiriev/wallet-cloud-sync/internal/utils"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/go-chi/chi/v5"
)

// maxBodySize caps request bodies: a full modify batch of maximum-size
// records plus JSON overhead.
const maxBodySize = 512 << 20

func (h *Handler) createContainer(w http.ResponseWriter, r *http.Request) {
	userID, container, ok := scope(w, r)
	if !ok {
		return
	}

	if err := h.services.RecordService.CreateContainer(r.Context(), userID, container); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteContainer(w http.ResponseWriter, r *http.Request) {
	userID, container, ok := scope(w, r)
	if !ok {
		return
	}

	if err := h.services.RecordService.DeleteContainer(r.Context(), userID, container); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) modifyRecords(w http.ResponseWriter, r *http.Request) {
	userID, container, ok := scope(w, r)
	if !ok {
		return
	}

	var req models.ModifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.services.RecordService.Modify(r.Context(), userID, container, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) queryRecords(w http.ResponseWriter, r *http.Request) {
	userID, container, ok := scope(w, r)
	if !ok {
		return
	}

	var q models.RecordQuery
	if !decodeBody(w, r, &q) {
		return
	}

	page, err := h.services.RecordService.Query(r.Context(), userID, container, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, page, http.StatusOK)
}

func (h *Handler) fetchMetadata(w http.ResponseWriter, r *http.Request) {
	userID, container, ok := scope(w, r)
	if !ok {
		return
	}

	var req models.MetadataRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.services.RecordService.FetchMetadata(r.Context(), userID, container, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

// scope returns the authenticated user and the container of the route.
func scope(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		logger.FromRequest(r).Err(ErrMissingUserID).Send()
		utils.WriteError(w, http.StatusUnauthorized, codeUnauthorized, ErrMissingUserID.Error())
		return 0, "", false
	}

	return userID, chi.URLParam(r, "container"), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		logger.FromRequest(r).Err(err).Msg("Invalid JSON was passed")
		writeServiceError(w, r, fmt.Errorf("%w: %w", service.ErrValidation, err))
		return false
	}
	return true
}
