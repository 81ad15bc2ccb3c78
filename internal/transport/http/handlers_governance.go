package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	"brandgov/pkg/platform/httputil"

	"brandgov/internal/assets"
	"brandgov/internal/governance"
	"brandgov/internal/workflow"
)

type reviewFunc func(ctx context.Context, assetID id.AssetID, decision governance.Decision) (assets.Asset, error)

// maxAuditImageBytes bounds the multipart upload. 10 MiB covers every image
// format the audit model accepts.
const maxAuditImageBytes = 10 << 20

type reviewBody struct {
	Decision        string `json:"decision"`
	RejectionReason string `json:"rejection_reason"`
}

func (h *Handler) handleReviewStageA(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, h.services.Governance.ReviewStageA)
}

func (h *Handler) handleReviewStageB(w http.ResponseWriter, r *http.Request) {
	h.handleReview(w, r, h.services.Governance.ReviewStageB)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request, review reviewFunc) {
	if !requireActor(w, r) {
		return
	}
	assetID, ok := assetIDParam(w, r)
	if !ok {
		return
	}

	var body reviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	target, ok := workflow.ParseStatus(body.Decision)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown decision: "+body.Decision))
		return
	}

	asset, err := review(r.Context(), assetID, governance.Decision{
		Target:          target,
		RejectionReason: body.RejectionReason,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "review decision failed",
			"asset_id", assetID, "decision", body.Decision, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(asset))
}

func (h *Handler) handleAuditWithImage(w http.ResponseWriter, r *http.Request) {
	if !requireActor(w, r) {
		return
	}
	assetID, ok := assetIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAuditImageBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "multipart field 'file' is required"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "read uploaded image"))
		return
	}

	audit, err := h.services.Governance.AuditWithImage(r.Context(), governance.AuditRequest{
		AssetID:  assetID,
		Image:    image,
		MimeType: header.Header.Get("Content-Type"),
		Filename: header.Filename,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "multimodal audit failed", "asset_id", assetID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toAuditResponse(audit))
}

func (h *Handler) handleListAudits(w http.ResponseWriter, r *http.Request) {
	assetID, ok := assetIDParam(w, r)
	if !ok {
		return
	}

	list, err := h.services.Governance.ListAudits(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items := make([]auditResponse, 0, len(list))
	for _, a := range list {
		items = append(items, toAuditResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse[auditResponse]{Items: items})
}
