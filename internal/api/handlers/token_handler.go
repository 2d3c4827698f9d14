package handlers

import (
	"net/http"
	"strconv"

	apiContext "keyring/internal/api/context"
	"keyring/internal/engine/tokens"
	"keyring/internal/pkg/errors"
	"keyring/internal/platform/audit"
	"keyring/internal/platform/models"
)

const maxPageSize = 100

type TokenHandler struct {
	svc          *tokens.Service
	audit        *audit.Logger
	itemsPerPage int
}

func NewTokenHandler(svc *tokens.Service, auditLogger *audit.Logger, itemsPerPage int) *TokenHandler {
	if itemsPerPage <= 0 {
		itemsPerPage = 10
	}
	return &TokenHandler{svc: svc, audit: auditLogger, itemsPerPage: itemsPerPage}
}

// List pages through the caller's tokens, or searches when keyword or token is set.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := r.URL.Query()

	if keyword, key := q.Get("keyword"), q.Get("token"); keyword != "" || key != "" {
		list, err := h.svc.Search(r.Context(), user.ID, keyword, key)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		errors.WriteSuccess(w, "", list)
		return
	}

	page, _ := strconv.Atoi(q.Get("p"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = h.itemsPerPage
	} else if size > maxPageSize {
		size = maxPageSize
	}

	list, err := h.svc.List(r.Context(), user.ID, page, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteSuccess(w, "", list)
}

func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := paramInt64(r, "id")
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid token id")
		return
	}

	token, err := h.svc.Get(r.Context(), id, currentUser(r).ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteSuccess(w, "", token)
}

func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Token
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body")
		return
	}

	user := currentUser(r)
	token, err := h.svc.Create(r.Context(), user, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.audit.Log(r, user.ID, "token.create", "token", strconv.FormatInt(token.ID, 10), map[string]interface{}{
		"name":  token.Name,
		"group": token.Group,
	})
	errors.WriteSuccess(w, "", token)
}

// Update handles PUT /api/token/. The status_only and billing_strategy_only
// query flags restrict which fields are taken from the body.
func (h *TokenHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.Token
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body")
		return
	}

	mode := tokens.UpdateFull
	action := "token.update"
	if r.URL.Query().Get("status_only") != "" {
		mode = tokens.UpdateStatusOnly
		action = "token.status"
	} else if r.URL.Query().Get("billing_strategy_only") != "" {
		mode = tokens.UpdateBillingOnly
		action = "token.billing"
	}

	user := currentUser(r)
	token, err := h.svc.Update(r.Context(), user, &req, mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.audit.Log(r, user.ID, action, "token", strconv.FormatInt(token.ID, 10), map[string]interface{}{
		"status":          token.Status,
		"billing_enabled": token.BillingEnabled,
	})
	errors.WriteSuccess(w, "Token updated", token)
}

func (h *TokenHandler) UpdateBillingStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := paramInt64(r, "id")
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid token id")
		return
	}

	var req struct {
		BillingEnabled int `json:"billing_enabled"`
	}
	if err := decodeJSON(r, &req); err != nil || (req.BillingEnabled != 0 && req.BillingEnabled != 1) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body")
		return
	}

	user := currentUser(r)
	token, err := h.svc.UpdateBilling(r.Context(), user.ID, id, req.BillingEnabled == 1)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.audit.Log(r, user.ID, "token.billing", "token", strconv.FormatInt(id, 10), map[string]interface{}{
		"billing_enabled": token.BillingEnabled,
	})
	errors.WriteSuccess(w, "Billing strategy updated", token)
}

func (h *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := paramInt64(r, "id")
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid token id")
		return
	}

	user := currentUser(r)
	if err := h.svc.Delete(r.Context(), id, user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.audit.Log(r, user.ID, "token.delete", "token", strconv.FormatInt(id, 10), nil)
	errors.WriteSuccess(w, "", nil)
}

// Status reports the credit summary of the key presented in the request.
func (h *TokenHandler) Status(w http.ResponseWriter, r *http.Request) {
	token := r.Context().Value(apiContext.Token).(*models.Token)
	errors.WriteSuccess(w, "", h.svc.CreditSummary(token))
}

func (h *TokenHandler) FirstUse(w http.ResponseWriter, r *http.Request) {
	token := r.Context().Value(apiContext.Token).(*models.Token)

	result, err := h.svc.UseFirstTime(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	message := "Token already used or not in first use mode"
	if result.Started {
		message = "Token used for the first time"
	}
	errors.WriteSuccess(w, message, result)
}
