package query

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/student-bot/backend/internal/intent"
)

const (
	MsgNeedName = "Please specify the student's name."
	MsgNeedYear = "Please specify a batch year."
)

// Request is what a handler sees: the trimmed original text, so the
// recognizer gets capitalisation, and its normalized form.
type Request struct {
	Text       string
	Normalized string
}

type Handler func(ctx context.Context, req Request) (string, error)

// fieldColumn describes a handler that reads one column of the student
// whose name contains the extracted name. found receives the stored full
// name and the value; notFound receives the extracted name in title case.
type fieldColumn struct {
	column   string
	found    string
	notFound string
}

var fieldColumns = map[intent.Intent]fieldColumn{
	intent.RollNumber:     {"RegisterNumber", "The roll number of %s is %s.", "No records found for %s."},
	intent.CGPA:           {"CGPA", "The CGPA of %s is %s.", "No records found for %s."},
	intent.Certifications: {"Certifications", "Certifications of %s: %s.", "No certifications found for %s."},
	intent.Skills:         {"Skills", "Skills of %s: %s.", "No skills found for %s."},
	intent.Projects:       {`"List of Projects"`, "Projects of %s: %s.", "No projects found for %s."},
	intent.Address:        {"Address", "The address of %s is %s.", "No address found for %s."},
	intent.Attendance:     {"Attendance", "The attendance of %s is %s.", "No attendance records found for %s."},
	intent.Department:     {"Department", "%s is in the %s department.", "No department information found for %s."},
	intent.DOB:            {"DateOfBirth", "The date of birth of %s is %s.", "No birthdate found for %s."},
}

const batchQuery = `SELECT FullName FROM Students WHERE BatchYear = ?`

// defaultHandlers builds the dispatch table. Contact, academic calendar
// and backlogs are recognised by the catalog but deliberately absent.
func (e *Engine) defaultHandlers() map[intent.Intent]Handler {
	handlers := make(map[intent.Intent]Handler, len(fieldColumns)+1)
	for in, col := range fieldColumns {
		handlers[in] = e.fieldHandler(col)
	}
	handlers[intent.Batch] = e.handleBatch
	return handlers
}

func (e *Engine) fieldHandler(col fieldColumn) Handler {
	query := fmt.Sprintf(`SELECT FullName, %s FROM Students WHERE FullName LIKE ? ESCAPE '\'`, col.column)

	return func(ctx context.Context, req Request) (string, error) {
		name, ok := e.extractor.Name(req.Text)
		if !ok {
			return MsgNeedName, nil
		}

		rows, err := e.lookup(ctx, query, containsPattern(name))
		if err != nil {
			if e.propagates(err) {
				return "", err
			}
			return fmt.Sprintf(col.notFound, displayName(name)), nil
		}

		row := rows[0]
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			return fmt.Sprintf(col.notFound, displayName(name)), nil
		}
		return fmt.Sprintf(col.found, row[0], strings.TrimSpace(row[1])), nil
	}
}

func (e *Engine) handleBatch(ctx context.Context, req Request) (string, error) {
	year, ok := e.extractor.Year(req.Text)
	if !ok {
		return MsgNeedYear, nil
	}

	rows, err := e.lookup(ctx, batchQuery, year)
	if err != nil {
		if e.propagates(err) {
			return "", err
		}
		return fmt.Sprintf("No records found for the %s batch.", year), nil
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row[0])
	}
	return fmt.Sprintf("Students in the %s batch: %s.", year, strings.Join(names, ", ")), nil
}

// displayName renders an extracted name independently of how the asker
// capitalised it, since answers are cached under the lowercased query.
func displayName(name string) string {
	return cases.Title(language.English).String(name)
}
