package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-bot/backend/internal/storage/models"
)

const rosterHTML = `<html><body>
<table><tr><td>navigation</td></tr></table>
<table>
  <tr><th>Roll No.</th><th>Name</th><th>CGPA</th><th>Batch</th><th>List of Projects</th><th>Department</th></tr>
  <tr><td>21CS045</td><td> Prasad
      Kumar </td><td>8.7</td><td>2024</td><td>Chatbot</td><td>CSM</td></tr>
  <tr><td>21CS052</td><td>Pranitham M</td><td></td><td>2024</td><td></td><td>CSE</td></tr>
  <tr><td>22CS011</td><td>Vishnu Vardhan</td><td>n/a</td><td>2025</td><td></td><td>CSE</td></tr>
  <tr><td></td><td>Nobody</td><td>7.0</td><td>2025</td><td></td><td></td></tr>
</table>
</body></html>`

type recordingWriter struct {
	students []models.Student
	err      error
}

func (w *recordingWriter) UpsertStudent(_ context.Context, s *models.Student) error {
	if w.err != nil {
		return w.err
	}
	w.students = append(w.students, *s)
	return nil
}

func TestParseRoster(t *testing.T) {
	students, skipped, err := ParseRoster(strings.NewReader(rosterHTML))
	require.NoError(t, err)

	assert.Equal(t, 2, skipped)
	require.Len(t, students, 2)

	assert.Equal(t, models.Student{
		RegisterNumber: "21CS045",
		FullName:       "Prasad Kumar",
		CGPA:           sql.NullFloat64{Float64: 8.7, Valid: true},
		BatchYear:      sql.NullInt64{Int64: 2024, Valid: true},
		Projects:       "Chatbot",
		Department:     "CSM",
	}, students[0])
	assert.Equal(t, "Pranitham M", students[1].FullName)
	assert.False(t, students[1].CGPA.Valid)
	assert.True(t, students[1].BatchYear.Valid)
}

func TestParseRoster_Errors(t *testing.T) {
	_, _, err := ParseRoster(strings.NewReader(`<p>no tables</p>`))
	assert.ErrorIs(t, err, ErrNoRosterTable)

	_, _, err = ParseRoster(strings.NewReader(`<table><tr><th>CGPA</th></tr></table>`))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestImportHTML(t *testing.T) {
	w := &recordingWriter{}
	res, err := NewProcessor(w).ImportHTML(context.Background(), strings.NewReader(rosterHTML))
	require.NoError(t, err)

	assert.Equal(t, Result{Imported: 2, Skipped: 2}, res)
	assert.Len(t, w.students, 2)
}

func TestImportHTML_WriteFailure(t *testing.T) {
	w := &recordingWriter{err: errors.New("readonly database")}
	_, err := NewProcessor(w).ImportHTML(context.Background(), strings.NewReader(rosterHTML))
	assert.ErrorContains(t, err, "failed to import 21CS045")
}
