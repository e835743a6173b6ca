package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *medication.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "invalid_request", verr.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
}

// writeStoreError renders a failed store operation. The store has already
// recorded the message in its error field.
func (h *Handlers) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, remote.ErrInvalidLogin):
		h.log.BusinessError(op+": invalid credentials", err)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid login credentials")
	case errors.Is(err, remote.ErrNotAuthenticated):
		h.log.BusinessError(op+": not authenticated", err)
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
	case errors.Is(err, remote.ErrAccountExists):
		h.log.BusinessError(op+": account exists", err)
		writeError(w, http.StatusConflict, "account_exists", "account already exists")
	case errors.Is(err, remote.ErrDisabled):
		h.log.BusinessError(op+": remote disabled", err)
		writeError(w, http.StatusServiceUnavailable, "remote_disabled", "remote backend not configured")
	default:
		h.log.InternalError(op+": remote call failed", err)
		writeError(w, http.StatusBadGateway, "remote_error", err.Error())
	}
}

func (h *Handlers) writeState(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.Store.State())
}
