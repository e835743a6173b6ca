package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"medminder-go/internal/domain/medication"
)

type users struct {
	c *Client
}

func (u users) GetCurrentUser(ctx context.Context) (*medication.User, error) {
	return u.c.currentUser(ctx)
}

func (u users) UpdateUser(ctx context.Context, patch medication.UserPatch) (*medication.User, error) {
	s, err := u.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	payload, _, err := u.c.do(ctx, request{
		op:     "users.update",
		method: http.MethodPatch,
		path:   restPrefix + "users",
		query:  userQuery(s.UserID),
		body:   patch,
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	var out medication.User
	found, err := firstRow(payload, &out)
	if err != nil {
		return nil, fmt.Errorf("users.update: decode: %w", err)
	}
	if !found {
		return nil, nil
	}
	if out.Caregivers == nil {
		out.Caregivers = []medication.Caregiver{}
	}
	return &out, nil
}

func (u users) AddCaregiver(ctx context.Context, in medication.CaregiverInput) (*medication.Caregiver, error) {
	s, err := u.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	row := in.Caregiver(uuid.NewString())
	row.UserID = s.UserID

	payload, _, err := u.c.do(ctx, request{
		op:     "caregivers.create",
		method: http.MethodPost,
		path:   restPrefix + "caregivers",
		body:   []medication.Caregiver{row},
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return decodeCaregiver("caregivers.create", payload)
}

func (u users) UpdateCaregiver(ctx context.Context, id string, patch medication.CaregiverPatch) (*medication.Caregiver, error) {
	s, err := u.c.authed(ctx)
	if err != nil {
		return nil, err
	}

	payload, _, err := u.c.do(ctx, request{
		op:     "caregivers.update",
		method: http.MethodPatch,
		path:   restPrefix + "caregivers",
		query:  url.Values{"id": {eq(id)}},
		body:   patch,
		token:  s.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return decodeCaregiver("caregivers.update", payload)
}

func (u users) DeleteCaregiver(ctx context.Context, id string) error {
	s, err := u.c.authed(ctx)
	if err != nil {
		return err
	}

	_, _, err = u.c.do(ctx, request{
		op:     "caregivers.delete",
		method: http.MethodDelete,
		path:   restPrefix + "caregivers",
		query:  url.Values{"id": {eq(id)}},
		token:  s.AccessToken,
	})
	return err
}

func (u users) Login(ctx context.Context, email, password string) error {
	return u.c.login(ctx, email, password)
}

func (u users) Signup(ctx context.Context, email, password string, profile medication.Profile) error {
	return u.c.signup(ctx, email, password, profile)
}

func (u users) Logout(ctx context.Context) error {
	return u.c.logout(ctx)
}

func decodeCaregiver(op string, payload []byte) (*medication.Caregiver, error) {
	var out medication.Caregiver
	found, err := firstRow(payload, &out)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}
