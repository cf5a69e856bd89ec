package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/storage/models"
	"github.com/student-bot/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

// NewClientFromDB wraps an already opened handle.
func NewClientFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) Close() error {
	if err := c.db.Close(); err != nil {
		return err
	}
	logger.Info("Database connection closed")
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS Students (
		RegisterNumber TEXT PRIMARY KEY,
		FullName TEXT NOT NULL,
		CGPA REAL,
		BatchYear INTEGER,
		Certifications TEXT,
		Skills TEXT,
		"List of Projects" TEXT,
		Address TEXT,
		Attendance TEXT,
		Department TEXT,
		DateOfBirth TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_students_batch ON Students(BatchYear);

	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		query_text TEXT NOT NULL,
		intent TEXT,
		response TEXT,
		cache_hit INTEGER DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_user ON query_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// Query runs a read-only statement and returns every row as strings.
// NULL columns come back as "" and REAL columns keep a decimal point.
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) ([][]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out [][]string
	for rows.Next() {
		values := make([]interface{}, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return out, nil
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".NI") {
			s += ".0"
		}
		return s
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func (c *Client) UpsertStudent(ctx context.Context, s *models.Student) error {
	query := `
		INSERT INTO Students (RegisterNumber, FullName, CGPA, BatchYear, Certifications, Skills,
			"List of Projects", Address, Attendance, Department, DateOfBirth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(RegisterNumber) DO UPDATE SET
			FullName = excluded.FullName,
			CGPA = excluded.CGPA,
			BatchYear = excluded.BatchYear,
			Certifications = excluded.Certifications,
			Skills = excluded.Skills,
			"List of Projects" = excluded."List of Projects",
			Address = excluded.Address,
			Attendance = excluded.Attendance,
			Department = excluded.Department,
			DateOfBirth = excluded.DateOfBirth
	`

	_, err := c.db.ExecContext(ctx, query,
		s.RegisterNumber,
		s.FullName,
		s.CGPA,
		s.BatchYear,
		s.Certifications,
		s.Skills,
		s.Projects,
		s.Address,
		s.Attendance,
		s.Department,
		s.DateOfBirth,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert student %s: %w", s.RegisterNumber, err)
	}

	logger.Debug("Student upserted", zap.String("register_number", s.RegisterNumber))
	return nil
}

func (c *Client) InsertQueryRecord(ctx context.Context, record *models.QueryRecord) error {
	query := `
		INSERT INTO query_history (id, user_id, query_text, intent, response, cache_hit, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	cacheHit := 0
	if record.CacheHit {
		cacheHit = 1
	}

	_, err := c.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.QueryText,
		record.Intent,
		record.Response,
		cacheHit,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	return nil
}

// GetQueryHistory returns the newest records first. An empty userID
// returns records for every user.
func (c *Client) GetQueryHistory(ctx context.Context, userID string, limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, user_id, query_text, intent, response, cache_hit, latency_ms, created_at
		FROM query_history
		WHERE (? = '' OR user_id = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var r models.QueryRecord
		var user, intent, response sql.NullString
		var cacheHit int
		var createdAt int64

		err := rows.Scan(&r.ID, &user, &r.QueryText, &intent, &response, &cacheHit, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.UserID = user.String
		r.Intent = intent.String
		r.Response = response.String
		r.CacheHit = cacheHit == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}
