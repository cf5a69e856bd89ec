package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/metrics"
	"github.com/student-bot/backend/pkg/logger"
)

var (
	// ErrNoMatch means the store answered but had no usable row.
	ErrNoMatch = errors.New("no matching record")
	// ErrStoreUnavailable means the store call itself failed.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Store is the read side of the student database. Every call made by the
// engine carries exactly one argument.
type Store interface {
	Query(ctx context.Context, query string, args ...interface{}) ([][]string, error)
	Close() error
}

// lookup issues one parameterized query. Store failures are logged here
// and surface as ErrStoreUnavailable; they are never retried.
func (e *Engine) lookup(ctx context.Context, query, arg string) ([][]string, error) {
	rows, err := e.store.Query(ctx, query, arg)
	if err != nil {
		metrics.StoreErrors.Inc()
		logger.Error("Database query error", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoMatch
	}
	return rows, nil
}

// propagates reports whether a lookup error should fail the handler
// rather than render as "not found".
func (e *Engine) propagates(err error) bool {
	return e.strict && errors.Is(err, ErrStoreUnavailable)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE operand matching name anywhere.
func containsPattern(name string) string {
	return "%" + likeEscaper.Replace(name) + "%"
}
