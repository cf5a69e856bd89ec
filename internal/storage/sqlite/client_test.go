package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-bot/backend/internal/storage/models"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewClientFromDB(db), mock
}

func TestQuery_ReturnsRowsAsStrings(t *testing.T) {
	client, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{"FullName", "CGPA"}).
		AddRow("Prasad Kumar", 8.7).
		AddRow("Prasad Rao", nil).
		AddRow("Prasad Varma", 9.0)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT FullName, CGPA FROM Students WHERE FullName LIKE ?`)).
		WithArgs("%prasad%").
		WillReturnRows(rows)

	got, err := client.Query(context.Background(), `SELECT FullName, CGPA FROM Students WHERE FullName LIKE ?`, "%prasad%")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Prasad Kumar", "8.7"}, {"Prasad Rao", ""}, {"Prasad Varma", "9.0"}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_NoRows(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(`SELECT FullName FROM Students WHERE BatchYear = \?`).
		WithArgs("2030").
		WillReturnRows(sqlmock.NewRows([]string{"FullName"}))

	got, err := client.Query(context.Background(), `SELECT FullName FROM Students WHERE BatchYear = ?`, "2030")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_WrapsDriverError(t *testing.T) {
	client, mock := newMockClient(t)

	driverErr := errors.New("no such table: Students")
	mock.ExpectQuery(`SELECT`).WillReturnError(driverErr)

	_, err := client.Query(context.Background(), `SELECT Skills FROM Students WHERE FullName LIKE ?`, "%x%")
	assert.ErrorIs(t, err, driverErr)
}

func TestUpsertStudent(t *testing.T) {
	client, mock := newMockClient(t)
	s := SampleStudents()[0]

	mock.ExpectExec(`INSERT INTO Students`).
		WithArgs(s.RegisterNumber, s.FullName, s.CGPA.Float64, s.BatchYear.Int64, s.Certifications, s.Skills,
			s.Projects, s.Address, s.Attendance, s.Department, s.DateOfBirth).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, client.UpsertStudent(context.Background(), &s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStudent_UnknownNumbersAreNull(t *testing.T) {
	client, mock := newMockClient(t)
	s := models.Student{RegisterNumber: "21CS045", FullName: "Prasad Kumar"}

	mock.ExpectExec(`INSERT INTO Students`).
		WithArgs("21CS045", "Prasad Kumar", nil, nil, "", "", "", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, client.UpsertStudent(context.Background(), &s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{[]byte("CSM"), "CSM"},
		{int64(2024), "2024"},
		{8.7, "8.7"},
		{9.0, "9.0"},
		{7.25, "7.25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestSeed_StopsAtFirstFailure(t *testing.T) {
	client, mock := newMockClient(t)
	students := SampleStudents()

	mock.ExpectExec(`INSERT INTO Students`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO Students`).WillReturnError(errors.New("disk full"))

	n, err := client.Seed(context.Background(), students)
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertQueryRecord(t *testing.T) {
	client, mock := newMockClient(t)
	created := time.Unix(1700000000, 0)

	mock.ExpectExec(`INSERT INTO query_history`).
		WithArgs("q-1", "u-1", "cgpa of prasad", "cgpa", "The CGPA of Prasad Kumar is 8.7.", 1, 3, created.Unix()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := client.InsertQueryRecord(context.Background(), &models.QueryRecord{
		ID:        "q-1",
		UserID:    "u-1",
		QueryText: "cgpa of prasad",
		Intent:    "cgpa",
		Response:  "The CGPA of Prasad Kumar is 8.7.",
		CacheHit:  true,
		LatencyMS: 3,
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQueryHistory(t *testing.T) {
	client, mock := newMockClient(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "query_text", "intent", "response", "cache_hit", "latency_ms", "created_at"}).
		AddRow("q-2", nil, "what's the weather?", "", "I'm sorry", 0, 1, int64(1700000100)).
		AddRow("q-1", "u-1", "cgpa of prasad", "cgpa", "The CGPA", 1, 3, int64(1700000000))
	mock.ExpectQuery(`FROM query_history`).
		WithArgs("", "", 10).
		WillReturnRows(rows)

	records, err := client.GetQueryHistory(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q-2", records[0].ID)
	assert.Equal(t, "", records[0].UserID)
	assert.False(t, records[0].CacheHit)
	assert.True(t, records[1].CacheHit)
	assert.Equal(t, time.Unix(1700000000, 0), records[1].CreatedAt)
}
