package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/storage/models"
	"github.com/student-bot/backend/pkg/logger"
)

var (
	ErrNoRosterTable   = errors.New("no roster table found")
	ErrMissingColumns  = errors.New("roster table lacks required columns")
	whitespacePattern  = regexp.MustCompile(`\s+`)
	headerStripPattern = regexp.MustCompile(`[^a-z]`)
)

type column int

const (
	colRegisterNumber column = iota
	colFullName
	colCGPA
	colBatchYear
	colCertifications
	colSkills
	colProjects
	colAddress
	colAttendance
	colDepartment
	colDateOfBirth
)

// Header spellings seen in exported rosters, after lowercasing and
// dropping everything that is not a letter.
var headerAliases = map[string]column{
	"registernumber":     colRegisterNumber,
	"registrationnumber": colRegisterNumber,
	"rollnumber":         colRegisterNumber,
	"rollno":             colRegisterNumber,
	"fullname":           colFullName,
	"name":               colFullName,
	"studentname":        colFullName,
	"cgpa":               colCGPA,
	"gpa":                colCGPA,
	"batchyear":          colBatchYear,
	"batch":              colBatchYear,
	"certifications":     colCertifications,
	"skills":             colSkills,
	"listofprojects":     colProjects,
	"projects":           colProjects,
	"address":            colAddress,
	"attendance":         colAttendance,
	"department":         colDepartment,
	"branch":             colDepartment,
	"dateofbirth":        colDateOfBirth,
	"dob":                colDateOfBirth,
}

// StudentWriter is the write side of the student store.
type StudentWriter interface {
	UpsertStudent(ctx context.Context, s *models.Student) error
}

type Result struct {
	Imported int
	Skipped  int
}

type Processor struct {
	db StudentWriter
}

func NewProcessor(db StudentWriter) *Processor {
	return &Processor{db: db}
}

// ImportHTML reads the first table in an HTML roster export and upserts
// each row keyed by register number. Rows that cannot be parsed are
// skipped and counted.
func (p *Processor) ImportHTML(ctx context.Context, r io.Reader) (Result, error) {
	students, skipped, err := ParseRoster(r)
	if err != nil {
		return Result{}, err
	}

	res := Result{Skipped: skipped}
	for i := range students {
		if err := p.db.UpsertStudent(ctx, &students[i]); err != nil {
			return res, fmt.Errorf("failed to import %s: %w", students[i].RegisterNumber, err)
		}
		res.Imported++
	}

	logger.Info("Roster imported",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)

	return res, nil
}

// ParseRoster extracts students from the first table whose header row
// names at least a register number and a full name column.
func ParseRoster(r io.Reader) ([]models.Student, int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse roster HTML: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, 0, ErrNoRosterTable
	}

	var (
		students []models.Student
		skipped  int
		found    bool
	)

	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		layout := headerLayout(rows.First())
		if _, ok := layout[colRegisterNumber]; !ok {
			return true
		}
		if _, ok := layout[colFullName]; !ok {
			return true
		}
		found = true

		rows.Slice(1, goquery.ToEnd).Each(func(i int, row *goquery.Selection) {
			cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
				return cleanText(cell.Text())
			})
			if len(cells) == 0 {
				return
			}

			s, err := studentFromRow(layout, cells)
			if err != nil {
				logger.Warn("Skipping roster row", zap.Int("row", i+1), zap.Error(err))
				skipped++
				return
			}
			students = append(students, s)
		})
		return false
	})

	if !found {
		return nil, 0, ErrMissingColumns
	}

	return students, skipped, nil
}

func headerLayout(header *goquery.Selection) map[column]int {
	layout := make(map[column]int)
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		key := headerStripPattern.ReplaceAllString(strings.ToLower(cell.Text()), "")
		if col, ok := headerAliases[key]; ok {
			if _, dup := layout[col]; !dup {
				layout[col] = i
			}
		}
	})
	return layout
}

func studentFromRow(layout map[column]int, cells []string) (models.Student, error) {
	get := func(col column) string {
		i, ok := layout[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	s := models.Student{
		RegisterNumber: get(colRegisterNumber),
		FullName:       get(colFullName),
		Certifications: get(colCertifications),
		Skills:         get(colSkills),
		Projects:       get(colProjects),
		Address:        get(colAddress),
		Attendance:     get(colAttendance),
		Department:     get(colDepartment),
		DateOfBirth:    get(colDateOfBirth),
	}
	if s.RegisterNumber == "" || s.FullName == "" {
		return s, errors.New("register number and full name are required")
	}

	if v := get(colCGPA); v != "" {
		cgpa, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("invalid CGPA %q: %w", v, err)
		}
		s.CGPA = sql.NullFloat64{Float64: cgpa, Valid: true}
	}

	if v := get(colBatchYear); v != "" {
		year, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return s, fmt.Errorf("invalid batch year %q: %w", v, err)
		}
		s.BatchYear = sql.NullInt64{Int64: year, Valid: true}
	}

	return s, nil
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
