package handler

import (
	"net/http"
	"strings"

	"medminder-go/internal/domain/medication"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	PreferredPharmacy string `json:"preferredPharmacy"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	if err := h.Store.Login(r.Context(), email, req.Password); err != nil {
		h.writeStoreError(w, "auth.login", err)
		return
	}
	h.log.Info("auth.login: signed in", "email", email)
	h.writeState(w)
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name, email and password are required")
		return
	}

	profile := medication.Profile{
		Name:              name,
		Phone:             strings.TrimSpace(req.Phone),
		PreferredPharmacy: strings.TrimSpace(req.PreferredPharmacy),
	}
	if err := h.Store.Signup(r.Context(), email, req.Password, profile); err != nil {
		h.writeStoreError(w, "auth.signup", err)
		return
	}
	h.log.Info("auth.signup: account created", "email", email)
	h.writeState(w)
}

// Logout always answers with the reset demo state. A failed remote sign-out
// shows up in the state's error field.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Logout(r.Context()); err != nil {
		h.log.BusinessError("auth.logout: remote sign-out failed", err)
	}
	h.writeState(w)
}
