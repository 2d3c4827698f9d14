package handlers

import (
	"net/http"

	"github.com/samber/lo"

	"keyring/internal/pkg/errors"
	"keyring/internal/platform/config"
)

type GroupHandler struct {
	groups []config.GroupConfig
}

func NewGroupHandler(groups []config.GroupConfig) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List returns group names in configuration order.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	names := lo.Map(h.groups, func(g config.GroupConfig, _ int) string {
		return g.Name
	})
	errors.WriteSuccess(w, "", names)
}
