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

type reminders struct {
	c *Client
}

func (r reminders) GetAll(ctx context.Context) ([]medication.Reminder, error) {
	s, err := r.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	payload, _, err := r.c.do(ctx, request{
		op:     "reminders.list",
		method: http.MethodGet,
		path:   restPrefix + "reminders",
		query:  url.Values{"select": {"*"}, "userId": {eq(s.UserID)}, "order": {createdOrder}},
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	out := []medication.Reminder{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("reminders.list: decode: %w", err)
	}
	return out, nil
}

func (r reminders) Add(ctx context.Context, reminder medication.Reminder) (*medication.Reminder, error) {
	s, err := r.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	reminder.ID = uuid.NewString()
	reminder.UserID = s.UserID

	payload, _, err := r.c.do(ctx, request{
		op:     "reminders.create",
		method: http.MethodPost,
		path:   restPrefix + "reminders",
		body:   []medication.Reminder{reminder},
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return decodeReminder("reminders.create", payload)
}

func (r reminders) MarkAsTaken(ctx context.Context, id string) (*medication.Reminder, error) {
	return r.resolve(ctx, "reminders.taken", id, true)
}

func (r reminders) MarkAsSkipped(ctx context.Context, id string) (*medication.Reminder, error) {
	return r.resolve(ctx, "reminders.skipped", id, false)
}

func (r reminders) resolve(ctx context.Context, op, id string, taken bool) (*medication.Reminder, error) {
	s, err := r.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	payload, _, err := r.c.do(ctx, request{
		op:     op,
		method: http.MethodPatch,
		path:   restPrefix + "reminders",
		query:  url.Values{"id": {eq(id)}},
		body:   map[string]bool{"taken": taken, "skipped": !taken},
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return decodeReminder(op, payload)
}

func (r reminders) Delete(ctx context.Context, id string) error {
	s, err := r.c.authed(ctx)
	if err != nil {
		return err
	}

	_, _, err = r.c.do(ctx, request{
		op:     "reminders.delete",
		method: http.MethodDelete,
		path:   restPrefix + "reminders",
		query:  url.Values{"id": {eq(id)}},
		token:  s.AccessToken,
	})
	return err
}

func decodeReminder(op string, payload []byte) (*medication.Reminder, error) {
	var out medication.Reminder
	found, err := firstRow(payload, &out)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}
