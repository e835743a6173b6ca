package handler

import (
	"net/http"
	"time"

	"medminder-go/internal/domain/medication"
)

type createMedicationRequest struct {
	Name         string                 `json:"name"`
	Dosage       string                 `json:"dosage"`
	Frequency    medication.Frequency   `json:"frequency"`
	TimeOfDay    []medication.TimeOfDay `json:"timeOfDay"`
	Instructions string                 `json:"instructions"`
	StartDate    string                 `json:"startDate"`
	EndDate      *string                `json:"endDate"`
	Color        string                 `json:"color"`
	Image        string                 `json:"image"`
	Prescriber   string                 `json:"prescriber"`
	Pharmacy     string                 `json:"pharmacy"`
}

type updateMedicationRequest struct {
	Name         *string                `json:"name"`
	Dosage       *string                `json:"dosage"`
	Frequency    *medication.Frequency  `json:"frequency"`
	TimeOfDay    []medication.TimeOfDay `json:"timeOfDay"`
	Instructions *string                `json:"instructions"`
	StartDate    *string                `json:"startDate"`
	EndDate      optionalDate           `json:"endDate"`
	Color        *string                `json:"color"`
	Image        *string                `json:"image"`
	Prescriber   *string                `json:"prescriber"`
	Pharmacy     *string                `json:"pharmacy"`
}

func (req createMedicationRequest) input(today time.Time) (medication.MedicationInput, error) {
	in := medication.MedicationInput{
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		TimeOfDay:    req.TimeOfDay,
		Instructions: req.Instructions,
		StartDate:    today,
		Color:        req.Color,
		Image:        req.Image,
		Prescriber:   req.Prescriber,
		Pharmacy:     req.Pharmacy,
	}
	if in.Frequency == "" {
		in.Frequency = medication.FrequencyDaily
	}
	if req.StartDate != "" {
		start, err := parseDate("startDate", req.StartDate)
		if err != nil {
			return medication.MedicationInput{}, err
		}
		in.StartDate = start
	}
	end, err := parseDateParam("endDate", req.EndDate)
	if err != nil {
		return medication.MedicationInput{}, err
	}
	in.EndDate = end
	return in, in.Validate()
}

func (req updateMedicationRequest) patch() (medication.MedicationPatch, error) {
	patch := medication.MedicationPatch{
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		TimeOfDay:    req.TimeOfDay,
		Instructions: req.Instructions,
		Color:        req.Color,
		Image:        req.Image,
		Prescriber:   req.Prescriber,
		Pharmacy:     req.Pharmacy,
	}
	if req.StartDate != nil {
		start, err := parseDate("startDate", *req.StartDate)
		if err != nil {
			return medication.MedicationPatch{}, err
		}
		patch.StartDate = &start
	}
	if req.EndDate.Set {
		end, err := parseDateParam("endDate", req.EndDate.Value)
		if err != nil {
			return medication.MedicationPatch{}, err
		}
		patch.EndDate = end
		patch.ClearEndDate = end == nil
	}
	return patch, patch.Validate()
}

func (h *Handlers) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var req createMedicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	now := time.Now().UTC()
	in, err := req.input(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.Store.AddMedication(r.Context(), in); err != nil {
		h.writeStoreError(w, "medications.create", err)
		return
	}
	h.writeState(w)
}

func (h *Handlers) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var req updateMedicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	patch, err := req.patch()
	if err != nil {
		writeValidationError(w, err)
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "invalid_request", "no fields to update")
		return
	}

	if err := h.Store.UpdateMedication(r.Context(), id, patch); err != nil {
		h.writeStoreError(w, "medications.update", err)
		return
	}
	h.writeState(w)
}

func (h *Handlers) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Store.DeleteMedication(r.Context(), id); err != nil {
		h.writeStoreError(w, "medications.delete", err)
		return
	}
	h.writeState(w)
}
