package handlers

import (
	"net/http"
	"strconv"

	"keyring/internal/pkg/errors"
	"keyring/internal/platform/audit"
)

type AuditHandler struct {
	logger *audit.Logger
}

func NewAuditHandler(logger *audit.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	logs, err := h.logger.Recent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteSuccess(w, "", logs)
}
