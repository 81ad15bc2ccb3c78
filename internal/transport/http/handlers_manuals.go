package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	"brandgov/pkg/platform/httputil"

	"brandgov/internal/manuals"
)

func (h *Handler) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	if !requireActor(w, r) {
		return
	}

	var req manuals.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	manual, err := h.services.Manuals.Create(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "create manual failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toManualResponse(manual))
}

func (h *Handler) handleListManuals(w http.ResponseWriter, r *http.Request) {
	list, err := h.services.Manuals.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list manuals failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	items := make([]manualResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toManualResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse[manualResponse]{Items: items})
}

func (h *Handler) handleGetManual(w http.ResponseWriter, r *http.Request) {
	manualID, err := id.ParseManualID(chi.URLParam(r, "manualID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid manual id"))
		return
	}

	manual, err := h.services.Manuals.Get(r.Context(), manualID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toManualResponse(manual))
}
