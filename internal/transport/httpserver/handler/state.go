package handler

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: string(h.Store.Mode())})
}

func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w)
}

func (h *Handlers) GetAdherence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Adherence())
}

func (h *Handlers) ClearError(w http.ResponseWriter, r *http.Request) {
	h.Store.ClearError()
	h.writeState(w)
}
