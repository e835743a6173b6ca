package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medminder-go/internal/demo"
	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
	"medminder-go/internal/state"
	"medminder-go/pkg/logger"
)

var testNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type accountUsers struct {
	remote.UserAPI
	loginErr error
}

func (u accountUsers) Login(context.Context, string, string) error {
	return u.loginErr
}

func (u accountUsers) GetCurrentUser(context.Context) (*medication.User, error) {
	return &medication.User{ID: "acct-1", Name: "Remote Person", Email: "remote@example.com"}, nil
}

func (u accountUsers) Logout(context.Context) error {
	return nil
}

type failingMedications struct {
	remote.MedicationAPI
	err error
}

func (f failingMedications) Add(context.Context, medication.MedicationInput) (*medication.Medication, error) {
	return nil, f.err
}

func newTestRouter(t *testing.T, api *remote.Client) (http.Handler, *state.Store) {
	t.Helper()
	clock := func() time.Time { return testNow }
	log := logger.New(io.Discard, slog.LevelError, "text")
	gen := demo.New(demo.WithClock(clock), demo.WithSource(fixedSource(0.9)))
	store := state.New(api, gen, nil, log, state.WithClock(clock))
	h := New(store, log)

	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Get("/api/state", h.GetState)
	r.Get("/api/adherence", h.GetAdherence)
	r.Delete("/api/error", h.ClearError)
	r.Post("/api/medications", h.CreateMedication)
	r.Patch("/api/medications/{id}", h.UpdateMedication)
	r.Delete("/api/medications/{id}", h.DeleteMedication)
	r.Post("/api/reminders/{id}/taken", h.MarkReminderTaken)
	r.Post("/api/reminders/{id}/skipped", h.MarkReminderSkipped)
	r.Post("/api/caregivers", h.CreateCaregiver)
	r.Patch("/api/caregivers/{id}", h.UpdateCaregiver)
	r.Delete("/api/caregivers/{id}", h.DeleteCaregiver)
	r.Patch("/api/user", h.UpdateUser)
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/signup", h.Signup)
	r.Post("/api/auth/logout", h.Logout)
	r.Post("/api/assistant/messages", h.AssistantMessage)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) state.State {
	t.Helper()
	var st state.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Code
}

func TestGetStateReturnsDemoData(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.Equal(t, state.ModeDemo, st.Mode)
	assert.Len(t, st.Medications, 3)
	assert.Len(t, st.Reminders, 4)
	assert.Equal(t, "Alex Johnson", st.User.Name)
	assert.False(t, st.User.IsLoggedIn)
}

func TestHealthReportsMode(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","mode":"demo"}`, rec.Body.String())
}

func TestCreateMedicationAddsRemindersPerSlot(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	body := `{"name":"Metformin","dosage":"500mg","frequency":"daily","timeOfDay":["morning","night"],"startDate":"2026-10-19","color":"#9B59B6"}`
	rec := do(t, router, http.MethodPost, "/api/medications", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st := decodeState(t, rec)
	require.Len(t, st.Medications, 4)
	added := st.Medications[3]
	assert.Equal(t, "Metformin", added.Name)
	assert.Regexp(t, `^med-`, added.ID)

	var times []string
	for _, r := range st.Reminders {
		if r.MedicationID == added.ID {
			times = append(times, r.Time)
			assert.Equal(t, "2026-10-19", r.Date)
			assert.True(t, r.Pending())
		}
	}
	assert.Equal(t, []string{"08:00", "22:00"}, times)
}

func TestCreateMedicationRejectsInvalidInput(t *testing.T) {
	router, store := newTestRouter(t, remote.NewMock())

	cases := map[string]string{
		"missing name":  `{"dosage":"5mg","timeOfDay":["morning"]}`,
		"no slots":      `{"name":"A","dosage":"5mg","timeOfDay":[]}`,
		"bad slot":      `{"name":"A","dosage":"5mg","timeOfDay":["noon"]}`,
		"bad date":      `{"name":"A","dosage":"5mg","timeOfDay":["morning"],"startDate":"19/10/2026"}`,
		"end before":    `{"name":"A","dosage":"5mg","timeOfDay":["morning"],"startDate":"2026-10-19","endDate":"2026-10-01"}`,
		"unknown field": `{"name":"A","dosage":"5mg","timeOfDay":["morning"],"refills":3}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/medications", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_request", decodeErrorCode(t, rec))
		})
	}
	assert.Len(t, store.State().Medications, 3)
}

func TestUpdateMedicationClearsEndDateWithNull(t *testing.T) {
	router, store := newTestRouter(t, remote.NewMock())
	require.NotNil(t, store.State().Medications[1].EndDate)

	rec := do(t, router, http.MethodPatch, "/api/medications/med-2", `{"endDate":null,"dosage":"250mg"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st := decodeState(t, rec)
	assert.Nil(t, st.Medications[1].EndDate)
	assert.Equal(t, "250mg", st.Medications[1].Dosage)
	assert.Equal(t, "Amoxicillin", st.Medications[1].Name)
}

func TestUpdateMedicationRejectsEmptyPatch(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodPatch, "/api/medications/med-1", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeErrorCode(t, rec))
}

func TestDeleteMedicationCascades(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodDelete, "/api/medications/med-2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.Len(t, st.Medications, 2)
	for _, r := range st.Reminders {
		assert.NotEqual(t, "med-2", r.MedicationID)
	}
}

func TestMarkReminderTakenThenSkipped(t *testing.T) {
	router, store := newTestRouter(t, remote.NewMock())
	id := store.State().Reminders[0].ID

	rec := do(t, router, http.MethodPost, "/api/reminders/"+id+"/taken", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeState(t, rec)
	assert.True(t, st.Reminders[0].Taken)
	assert.False(t, st.Reminders[0].Skipped)

	rec = do(t, router, http.MethodPost, "/api/reminders/"+id+"/skipped", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decodeState(t, rec)
	assert.False(t, st.Reminders[0].Taken)
	assert.True(t, st.Reminders[0].Skipped)
}

func TestUnknownReminderIsNoop(t *testing.T) {
	router, store := newTestRouter(t, remote.NewMock())
	before := store.State()

	rec := do(t, router, http.MethodPost, "/api/reminders/missing/taken", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before.Reminders, decodeState(t, rec).Reminders)
}

func TestCaregiverEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodPost, "/api/caregivers", `{"name":"Sam","email":"sam@example.com","relationship":"Friend"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeState(t, rec)
	require.Len(t, st.User.Caregivers, 2)
	added := st.User.Caregivers[1]
	assert.Equal(t, "Sam", added.Name)

	rec = do(t, router, http.MethodPatch, "/api/caregivers/"+added.ID, `{"notifyOnLow":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeState(t, rec).User.Caregivers[1].NotifyOnLow)

	rec = do(t, router, http.MethodDelete, "/api/caregivers/caregiver-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decodeState(t, rec)
	require.Len(t, st.User.Caregivers, 1)
	assert.Equal(t, added.ID, st.User.Caregivers[0].ID)

	rec = do(t, router, http.MethodPost, "/api/caregivers", `{"name":"No Contact"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUserKeepsCaregivers(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodPatch, "/api/user", `{"phone":"555-000-1111"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.Equal(t, "555-000-1111", st.User.Phone)
	assert.Equal(t, "Alex Johnson", st.User.Name)
	assert.Len(t, st.User.Caregivers, 1)
}

func TestLoginWithoutBackendIsUnavailable(t *testing.T) {
	router, store := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"pw"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "remote_disabled", decodeErrorCode(t, rec))
	assert.Equal(t, state.ModeDemo, store.Mode())
	assert.NotEmpty(t, store.State().Error)
}

func TestLoginRequiresCredentials(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodPost, "/api/auth/login", `{"email":"a@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectedCredentials(t *testing.T) {
	api := remote.NewMock()
	api.Users = accountUsers{UserAPI: api.Users, loginErr: remote.ErrInvalidLogin}
	router, _ := newTestRouter(t, api)

	rec := do(t, router, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeErrorCode(t, rec))
}

func TestAuthenticatedRemoteFailureIsBadGateway(t *testing.T) {
	api := remote.NewMock()
	api.Users = accountUsers{UserAPI: api.Users}
	api.Medications = failingMedications{MedicationAPI: api.Medications, err: errors.New("network down")}
	router, store := newTestRouter(t, api)

	rec := do(t, router, http.MethodPost, "/api/auth/login", `{"email":"remote@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeState(t, rec)
	assert.Equal(t, state.ModeAuthenticated, st.Mode)
	assert.True(t, st.User.IsLoggedIn)
	assert.Empty(t, st.Medications)

	rec = do(t, router, http.MethodPost, "/api/medications", `{"name":"A","dosage":"5mg","timeOfDay":["morning"]}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "remote_error", decodeErrorCode(t, rec))
	assert.Empty(t, store.State().Medications)
	assert.Equal(t, "network down", store.State().Error)

	rec = do(t, router, http.MethodDelete, "/api/error", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeState(t, rec).Error)

	rec = do(t, router, http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decodeState(t, rec)
	assert.Equal(t, state.ModeDemo, st.Mode)
	assert.Len(t, st.Medications, 3)
}

func TestAdherenceSummary(t *testing.T) {
	router, store := newTestRouter(t, remote.NewMock())
	for _, r := range store.State().Reminders {
		require.NoError(t, store.MarkReminderAsTaken(context.Background(), r.ID))
	}

	rec := do(t, router, http.MethodGet, "/api/adherence", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got medication.Adherence
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, medication.Adherence{Total: 4, Taken: 4, Rate: 100}, got)
}

func TestAssistantMessage(t *testing.T) {
	router, _ := newTestRouter(t, remote.NewMock())

	rec := do(t, router, http.MethodPost, "/api/assistant/messages", `{"message":"Thank you!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"You're welcome! I'm here to help with your medication management needs."}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/assistant/messages", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
