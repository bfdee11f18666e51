// internal/workers/assignment/check-conflicts/handler_test.go
package checkconflicts

import (
	"context"
	"testing"
	"time"

	"dispatch-workers/internal/common/database"
	"dispatch-workers/internal/common/errors"
	"dispatch-workers/internal/common/logger"
	"dispatch-workers/internal/engine/conflict"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commitmentColumns = []string{
	"id", "org_id", "technician_id", "scheduled_time", "end_time", "duration_minutes", "override_used", "created_at",
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	store := conflict.NewCommitmentStore(&database.PostgresClient{DB: db}, log)
	detector := conflict.NewDetector(store, 5*time.Second, log)

	return NewHandler(LoadConfig(), detector, log), mock
}

func validInput() *Input {
	return &Input{
		OrgID:                    "org-1",
		TechnicianID:             "tech-a",
		ScheduledTime:            "2025-11-13T11:30:00Z",
		EstimatedDurationMinutes: 60,
	}
}

func TestExecute_ReportsOverlappingCommitment(t *testing.T) {
	handler, mock := newTestHandler(t)

	existingStart := time.Date(2025, 11, 13, 11, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM schedule_commitments").
		WithArgs("org-1", "tech-a", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(commitmentColumns).
			AddRow("c1", "org-1", "tech-a", existingStart, existingStart.Add(90*time.Minute), 90, false, existingStart))

	output, err := handler.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, output.HasConflicts)
	require.Len(t, output.Conflicts, 1)
	assert.Equal(t, "c1", output.Conflicts[0].CommitmentID)
	assert.True(t, output.Conflicts[0].ScheduledTime.Equal(existingStart))
}

func TestExecute_ClearWindow(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM schedule_commitments").
		WillReturnRows(sqlmock.NewRows(commitmentColumns))

	output, err := handler.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.False(t, output.HasConflicts)
	assert.NotNil(t, output.Conflicts)
	assert.Empty(t, output.Conflicts)
}

func TestExecute_ValidationFailures(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing org", func(i *Input) { i.OrgID = "" }},
		{"missing technician", func(i *Input) { i.TechnicianID = "" }},
		{"missing scheduled time", func(i *Input) { i.ScheduledTime = "" }},
		{"zero duration", func(i *Input) { i.EstimatedDurationMinutes = 0 }},
		{"negative duration", func(i *Input) { i.EstimatedDurationMinutes = -30 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)

			_, err := handler.Execute(context.Background(), input)

			require.Error(t, err)
			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
		})
	}
}

func TestExecute_MalformedScheduledTime(t *testing.T) {
	handler, _ := newTestHandler(t)

	input := validInput()
	input.ScheduledTime = "tomorrow-ish"

	_, err := handler.Execute(context.Background(), input)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
}

func TestExecute_StorageFailureFailsClosed(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM schedule_commitments").
		WillReturnError(assert.AnError)

	output, err := handler.Execute(context.Background(), validInput())

	require.Error(t, err)
	assert.Nil(t, output)
}
