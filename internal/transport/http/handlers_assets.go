package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	"brandgov/pkg/platform/httputil"

	"brandgov/internal/assets"
	"brandgov/internal/workflow"
)

type generateAssetBody struct {
	ManualID  string `json:"manual_id"`
	AssetType string `json:"asset_type"`
	Brief     string `json:"brief"`
}

func (h *Handler) handleGenerateAsset(w http.ResponseWriter, r *http.Request) {
	if !requireActor(w, r) {
		return
	}

	var body generateAssetBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	manualID, err := id.ParseManualID(body.ManualID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid manual id"))
		return
	}
	assetType, err := assets.ParseAssetType(body.AssetType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, ragContext, err := h.services.Assets.Generate(r.Context(), assets.GenerateRequest{
		ManualID: manualID,
		Type:     assetType,
		Brief:    body.Brief,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "generate asset failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	if ragContext == nil {
		ragContext = []string{}
	}
	httputil.WriteJSON(w, http.StatusCreated, generateAssetResponse{
		Asset:      toAssetResponse(asset),
		RAGContext: ragContext,
	})
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := assetIDParam(w, r)
	if !ok {
		return
	}

	asset, err := h.services.Assets.Get(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	var filter assets.ListFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := workflow.ParseStatus(raw)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+raw))
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("asset_type"); raw != "" {
		assetType, err := assets.ParseAssetType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Type = &assetType
	}

	list, err := h.services.Assets.List(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list assets failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	items := make([]assetResponse, 0, len(list))
	for _, a := range list {
		items = append(items, toAssetResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse[assetResponse]{Items: items})
}

func (h *Handler) handleAssetHistory(w http.ResponseWriter, r *http.Request) {
	var typeFilter *assets.AssetType
	if raw := r.URL.Query().Get("asset_type"); raw != "" {
		assetType, err := assets.ParseAssetType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		typeFilter = &assetType
	}

	history, err := h.services.Assets.History(r.Context(), typeFilter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "asset history failed", "error", err)
		httputil.WriteError(w, err)
		return
	}

	items := make([]historyItemResponse, 0, len(history))
	for _, item := range history {
		items = append(items, toHistoryItemResponse(item))
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse[historyItemResponse]{Items: items})
}

func (h *Handler) handleAssetJourney(w http.ResponseWriter, r *http.Request) {
	assetID, ok := assetIDParam(w, r)
	if !ok {
		return
	}

	item, events, err := h.services.Assets.Journey(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := journeyResponse{
		Asset:  toHistoryItemResponse(item),
		Events: make([]journeyEventResponse, 0, len(events)),
	}
	for _, e := range events {
		out.Events = append(out.Events, toJourneyEventResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func assetIDParam(w http.ResponseWriter, r *http.Request) (id.AssetID, bool) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid asset id"))
		return id.AssetID{}, false
	}
	return assetID, true
}
