package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "keyring/internal/api/context"
	"keyring/internal/engine/tokens"
	"keyring/internal/pkg/errors"
	"keyring/internal/platform/auth"
	"keyring/internal/platform/models"
)

func currentUser(r *http.Request) *models.User {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return &models.User{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Group:    claims.Group,
	}
}

func paramInt64(r *http.Request, name string) (int64, error) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	return strconv.ParseInt(params.ByName(name), 10, 64)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeServiceError maps domain errors onto the response envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *tokens.ValidationError
	switch {
	case stderrors.As(err, &verr):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, verr.Message)
	case stderrors.Is(err, tokens.ErrNotFound):
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Token not found")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error())
	}
}
