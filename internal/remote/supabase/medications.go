package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"medminder-go/internal/domain/medication"
)

type medications struct {
	c *Client
}

func (m medications) GetAll(ctx context.Context) ([]medication.Medication, error) {
	s, err := m.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	payload, _, err := m.c.do(ctx, request{
		op:     "medications.list",
		method: http.MethodGet,
		path:   restPrefix + "medications",
		query:  url.Values{"select": {"*"}, "userId": {eq(s.UserID)}, "order": {createdOrder}},
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	out := []medication.Medication{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("medications.list: decode: %w", err)
	}
	return out, nil
}

func (m medications) Add(ctx context.Context, in medication.MedicationInput) (*medication.Medication, error) {
	s, err := m.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	row := in.Medication(uuid.NewString())
	row.UserID = s.UserID

	payload, _, err := m.c.do(ctx, request{
		op:     "medications.create",
		method: http.MethodPost,
		path:   restPrefix + "medications",
		body:   []medication.Medication{row},
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return decodeMedication("medications.create", payload)
}

func (m medications) Update(ctx context.Context, id string, patch medication.MedicationPatch) (*medication.Medication, error) {
	s, err := m.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	payload, _, err := m.c.do(ctx, request{
		op:     "medications.update",
		method: http.MethodPatch,
		path:   restPrefix + "medications",
		query:  url.Values{"id": {eq(id)}},
		body:   medicationPatchBody(patch),
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return decodeMedication("medications.update", payload)
}

func (m medications) Delete(ctx context.Context, id string) error {
	s, err := m.c.authed(ctx)
	if err != nil {
		return err
	}

	_, _, err = m.c.do(ctx, request{
		op:     "medications.delete",
		method: http.MethodDelete,
		path:   restPrefix + "medications",
		query:  url.Values{"id": {eq(id)}},
		token:  s.AccessToken,
	})
	return err
}

func decodeMedication(op string, payload []byte) (*medication.Medication, error) {
	var out medication.Medication
	found, err := firstRow(payload, &out)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

// medicationPatchBody renders only the fields the patch sets, with an
// explicit null when the end date is cleared.
func medicationPatchBody(p medication.MedicationPatch) map[string]interface{} {
	body := map[string]interface{}{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.Dosage != nil {
		body["dosage"] = *p.Dosage
	}
	if p.Frequency != nil {
		body["frequency"] = *p.Frequency
	}
	if p.TimeOfDay != nil {
		body["timeOfDay"] = p.TimeOfDay
	}
	if p.Instructions != nil {
		body["instructions"] = *p.Instructions
	}
	if p.StartDate != nil {
		body["startDate"] = *p.StartDate
	}
	if p.ClearEndDate {
		body["endDate"] = nil
	} else if p.EndDate != nil {
		body["endDate"] = *p.EndDate
	}
	if p.Color != nil {
		body["color"] = *p.Color
	}
	if p.Image != nil {
		body["image"] = *p.Image
	}
	if p.Prescriber != nil {
		body["prescriber"] = *p.Prescriber
	}
	if p.Pharmacy != nil {
		body["pharmacy"] = *p.Pharmacy
	}
	return body
}
