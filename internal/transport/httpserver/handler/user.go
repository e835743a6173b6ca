package handler

import (
	"net/http"

	"medminder-go/internal/domain/medication"
)

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch medication.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}

	if err := h.Store.UpdateUser(r.Context(), patch); err != nil {
		h.writeStoreError(w, "user.update", err)
		return
	}
	h.writeState(w)
}
