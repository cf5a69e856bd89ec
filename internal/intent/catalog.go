package intent

import (
	"errors"
	"fmt"
	"strings"
)

// Intent is a category of question the router knows how to recognise.
type Intent string

const (
	Unknown          Intent = ""
	RollNumber       Intent = "roll_number"
	CGPA             Intent = "cgpa"
	Batch            Intent = "batch"
	Certifications   Intent = "certifications"
	Skills           Intent = "skills"
	Projects         Intent = "projects"
	Address          Intent = "address"
	Attendance       Intent = "attendance"
	Department       Intent = "department"
	DOB              Intent = "dob"
	Contact          Intent = "contact"
	AcademicCalendar Intent = "academic_calendar"
	Backlogs         Intent = "backlogs"
)

func (i Intent) String() string {
	if i == Unknown {
		return "unknown"
	}
	return string(i)
}

var ErrInvalidCatalog = errors.New("invalid intent catalog")

// Entry binds an intent to the phrases that trigger it.
type Entry struct {
	Intent   Intent
	Triggers []string
}

// Catalog is an ordered, immutable list of entries. Order is the
// tie-break: when a query contains triggers of several intents the
// earliest entry wins.
type Catalog struct {
	entries []Entry
}

// NewCatalog validates entries and takes a private copy of them.
func NewCatalog(entries []Entry) (*Catalog, error) {
	seen := make(map[Intent]bool, len(entries))
	copied := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if e.Intent == Unknown {
			return nil, fmt.Errorf("%w: empty intent id", ErrInvalidCatalog)
		}
		if seen[e.Intent] {
			return nil, fmt.Errorf("%w: duplicate intent %q", ErrInvalidCatalog, e.Intent)
		}
		if len(e.Triggers) == 0 {
			return nil, fmt.Errorf("%w: intent %q has no triggers", ErrInvalidCatalog, e.Intent)
		}
		for _, p := range e.Triggers {
			if p == "" || p != strings.ToLower(p) {
				return nil, fmt.Errorf("%w: intent %q trigger %q must be non-empty lowercase", ErrInvalidCatalog, e.Intent, p)
			}
		}
		seen[e.Intent] = true
		copied = append(copied, Entry{Intent: e.Intent, Triggers: append([]string(nil), e.Triggers...)})
	}

	return &Catalog{entries: copied}, nil
}

// Entries returns a copy of the catalog in iteration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = Entry{Intent: e.Intent, Triggers: append([]string(nil), e.Triggers...)}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// DefaultCatalog is the student records vocabulary.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultEntries)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultEntries = []Entry{
	{RollNumber, []string{"roll number", "registration number", "student id", "student roll", "student identifier", "enrollment number"}},
	{CGPA, []string{"cgpa", "gpa", "grades", "academic performance", "cgpa score", "grade point average", "academic standing"}},
	{Batch, []string{"batch", "year of admission", "students in batch", "year group", "admission year"}},
	{Certifications, []string{"certifications", "courses completed", "achievements", "credentials", "certificates"}},
	{Skills, []string{"skills", "competencies", "abilities", "expertise", "proficiencies", "technical skills"}},
	{Projects, []string{"projects", "assignments", "work done", "completed projects", "project list", "academic projects"}},
	{Address, []string{"address", "location", "residence", "living in", "staying at", "home address"}},
	{Attendance, []string{"attendance", "presence", "absences", "attended classes", "class attendance"}},
	{Department, []string{"department", "branch", "course", "academic stream", "major"}},
	{DOB, []string{"dob", "date of birth", "birthdate", "birthday"}},
	{Contact, []string{"contact", "phone number", "email", "phone", "contact details"}},
	{AcademicCalendar, []string{"academic calendar", "important dates", "semester schedule", "academic events"}},
	{Backlogs, []string{"backlogs", "failed subjects", "arrears", "pending subjects", "uncleared courses"}},
}
