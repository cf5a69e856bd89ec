package sqlite

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/storage/models"
	"github.com/student-bot/backend/pkg/logger"
)

// SampleStudents is the demo roster loaded by `studentbot seed`.
func SampleStudents() []models.Student {
	return []models.Student{
		{
			RegisterNumber: "21CS045",
			FullName:       "Prasad Kumar",
			CGPA:           cgpa(8.7),
			BatchYear:      batch(2024),
			Certifications: "AWS Cloud Practitioner, Oracle Java SE 11",
			Skills:         "Go, Python, SQL",
			Projects:       "Student Chatbot, Library Management System",
			Address:        "12-4 Gandhi Nagar, Hyderabad",
			Attendance:     "91%",
			Department:     "CSM",
			DateOfBirth:    "2003-04-17",
		},
		{
			RegisterNumber: "21CS052",
			FullName:       "Pranitham M",
			CGPA:           cgpa(9.1),
			BatchYear:      batch(2024),
			Certifications: "Google Data Analytics",
			Skills:         "React, JavaScript, Figma",
			Projects:       "Campus Events Portal",
			Address:        "3-88 Ameerpet, Hyderabad",
			Attendance:     "88%",
			Department:     "CSM",
			DateOfBirth:    "2003-09-02",
		},
		{
			RegisterNumber: "22CS011",
			FullName:       "Vishnu Vardhan",
			CGPA:           cgpa(8.2),
			BatchYear:      batch(2025),
			Skills:         "C++, Linux",
			Projects:       "Traffic Sign Classifier",
			Address:        "7-1 Kukatpally, Hyderabad",
			Attendance:     "79%",
			Department:     "CSE",
			DateOfBirth:    "2004-01-23",
		},
		{
			RegisterNumber: "22CS030",
			FullName:       "Revanth Reddy",
			CGPA:           cgpa(7.9),
			BatchYear:      batch(2025),
			Certifications: "Cisco CCNA",
			Skills:         "Networking, Bash",
			Address:        "5-22 Secunderabad",
			Attendance:     "84%",
			Department:     "ECE",
			DateOfBirth:    "2004-06-30",
		},
	}
}

func cgpa(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func batch(year int64) sql.NullInt64 { return sql.NullInt64{Int64: year, Valid: true} }

func (c *Client) Seed(ctx context.Context, students []models.Student) (int, error) {
	for i := range students {
		if err := c.UpsertStudent(ctx, &students[i]); err != nil {
			return i, err
		}
	}
	logger.Info("Students seeded", zap.Int("count", len(students)))
	return len(students), nil
}
