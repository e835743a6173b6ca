package handler

import "net/http"

func (h *Handlers) MarkReminderTaken(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Store.MarkReminderAsTaken(r.Context(), id); err != nil {
		h.writeStoreError(w, "reminders.taken", err)
		return
	}
	h.writeState(w)
}

func (h *Handlers) MarkReminderSkipped(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Store.MarkReminderAsSkipped(r.Context(), id); err != nil {
		h.writeStoreError(w, "reminders.skipped", err)
		return
	}
	h.writeState(w)
}
