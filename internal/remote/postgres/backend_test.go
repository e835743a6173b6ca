package postgres

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
	"medminder-go/pkg/logger"
)

type memorySessions struct {
	mu       sync.Mutex
	payloads map[string][]byte
}

func (m *memorySessions) LoadSession(_ context.Context, provider string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payloads[provider], nil
}

func (m *memorySessions) SaveSession(_ context.Context, provider string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads[provider] = payload
	return nil
}

func (m *memorySessions) ClearSession(_ context.Context, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payloads, provider)
	return nil
}

func newMockBackend(t *testing.T, signedIn string) (*remote.Client, sqlmock.Sqlmock, *memorySessions) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sessions := &memorySessions{payloads: map[string][]byte{}}
	if signedIn != "" {
		sessions.payloads[Provider] = []byte(`{"userId":"` + signedIn + `"}`)
	}

	log := logger.New(io.Discard, slog.LevelError, "text")
	return New(db, sessions, log).Remote(), mock, sessions
}

func TestRowsRequireSignedInAccount(t *testing.T) {
	api, mock, _ := newMockBackend(t, "")

	_, err := api.Medications.GetAll(context.Background())
	assert.ErrorIs(t, err, remote.ErrNotAuthenticated)

	user, err := api.Users.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllMedicationsIsScopedToUser(t *testing.T) {
	api, mock, _ := newMockBackend(t, "user-1")

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "medications" WHERE user_id = \$1 ORDER BY created_seq asc`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "dosage", "frequency", "time_of_day", "start_date"}).
			AddRow("m1", "user-1", "Aspirin", "100mg", "daily", []byte(`["morning","night"]`), start))

	meds, err := api.Medications.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Aspirin", meds[0].Name)
	assert.True(t, meds[0].Has(medication.Night))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingMedicationReturnsNil(t *testing.T) {
	api, mock, _ := newMockBackend(t, "user-1")

	mock.ExpectQuery(`SELECT \* FROM "medications" WHERE user_id = \$1 AND id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	name := "Renamed"
	med, err := api.Medications.Update(context.Background(), "missing", medication.MedicationPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, med)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMedicationIsScopedToUser(t *testing.T) {
	api, mock, _ := newMockBackend(t, "user-1")

	mock.ExpectExec(`DELETE FROM "medications" WHERE id = \$1 AND user_id = \$2`).
		WithArgs("m1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, api.Medications.Delete(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkUnknownReminderReturnsNil(t *testing.T) {
	api, mock, _ := newMockBackend(t, "user-1")

	mock.ExpectExec(`UPDATE "reminders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	reminder, err := api.Reminders.MarkAsSkipped(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, reminder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginChecksPasswordAndStoresSession(t *testing.T) {
	api, mock, sessions := newMockBackend(t, "")

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("user-1", "alex@example.com", string(hash), time.Now())
	}

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE email = \$1`).WillReturnRows(rows())
	err = api.Users.Login(context.Background(), "Alex@Example.com", "wrong")
	assert.ErrorIs(t, err, remote.ErrInvalidLogin)
	assert.Empty(t, sessions.payloads[Provider])

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE email = \$1`).WillReturnRows(rows())
	require.NoError(t, api.Users.Login(context.Background(), "alex@example.com", "secret"))
	assert.JSONEq(t, `{"userId":"user-1"}`, string(sessions.payloads[Provider]))

	require.NoError(t, api.Users.Logout(context.Background()))
	assert.Empty(t, sessions.payloads[Provider])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRejectsExistingEmail(t *testing.T) {
	api, mock, _ := newMockBackend(t, "")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE email = \$1`).
		WithArgs("alex@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := api.Users.Signup(context.Background(), "alex@example.com", "secret", medication.Profile{Name: "Alex"})
	assert.ErrorIs(t, err, remote.ErrAccountExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentUserLoadsCaregivers(t *testing.T) {
	api, mock, _ := newMockBackend(t, "user-1")

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow("user-1", "Alex", "alex@example.com"))
	mock.ExpectQuery(`SELECT \* FROM "caregivers" WHERE "caregivers"."user_id" = \$1 ORDER BY created_seq asc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).
			AddRow("c2", "user-1", "Taylor").
			AddRow("c1", "user-1", "Jamie"))

	user, err := api.Users.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alex", user.Name)
	require.Len(t, user.Caregivers, 2)
	assert.Equal(t, []string{"c2", "c1"}, []string{user.Caregivers[0].ID, user.Caregivers[1].ID})
	assert.NoError(t, mock.ExpectationsWereMet())
}
