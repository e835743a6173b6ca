package handler

import (
	"net/http"

	"medminder-go/internal/domain/medication"
)

func (h *Handlers) CreateCaregiver(w http.ResponseWriter, r *http.Request) {
	var in medication.CaregiverInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.Store.AddCaregiver(r.Context(), in); err != nil {
		h.writeStoreError(w, "caregivers.create", err)
		return
	}
	h.writeState(w)
}

func (h *Handlers) UpdateCaregiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var patch medication.CaregiverPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}

	if err := h.Store.UpdateCaregiver(r.Context(), id, patch); err != nil {
		h.writeStoreError(w, "caregivers.update", err)
		return
	}
	h.writeState(w)
}

func (h *Handlers) DeleteCaregiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Store.DeleteCaregiver(r.Context(), id); err != nil {
		h.writeStoreError(w, "caregivers.delete", err)
		return
	}
	h.writeState(w)
}
