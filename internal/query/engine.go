package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/cache"
	"github.com/student-bot/backend/internal/extract"
	"github.com/student-bot/backend/internal/intent"
	"github.com/student-bot/backend/internal/metrics"
	"github.com/student-bot/backend/pkg/logger"
)

const (
	MsgUnknown = "I'm sorry, I didn't understand your query. Can you rephrase it?"
	MsgFailure = "An error occurred while processing your query."
)

var ErrNoHandler = errors.New("no handler registered for intent")

type Options struct {
	// Catalog defaults to intent.DefaultCatalog.
	Catalog *intent.Catalog
	// Extractor defaults to pattern-only extraction.
	Extractor *extract.Extractor
	// Cache defaults to cache.NewUnbounded.
	Cache cache.Cache
	// StrictStoreErrors reports store failures as processing errors
	// instead of "not found" answers.
	StrictStoreErrors bool
}

// Engine turns free text into an answer. It is not safe for concurrent
// use: the response cache and the store are owned by one caller at a time.
type Engine struct {
	store      Store
	classifier *intent.Classifier
	extractor  *extract.Extractor
	cache      cache.Cache
	handlers   map[intent.Intent]Handler
	strict     bool
}

type Result struct {
	Response string
	// Intent is Unknown for cache hits, which skip classification.
	Intent   intent.Intent
	CacheHit bool
}

func NewEngine(store Store, opts Options) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = intent.DefaultCatalog()
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.NewExtractor(nil)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewUnbounded()
	}

	e := &Engine{
		store:      store,
		classifier: intent.NewClassifier(opts.Catalog),
		extractor:  opts.Extractor,
		cache:      opts.Cache,
		strict:     opts.StrictStoreErrors,
	}
	e.handlers = e.defaultHandlers()

	logger.Info("Query engine initialized",
		zap.Int("intents", opts.Catalog.Len()),
		zap.Int("handlers", len(e.handlers)),
		zap.String("cache", e.cache.Kind()),
		zap.Bool("recognizer", opts.Extractor.HasRecognizer()),
		zap.Bool("strict_store_errors", e.strict),
	)

	return e
}

// ProcessQuery answers text. It never returns an error: every failure is
// rendered as one of the fixed messages.
func (e *Engine) ProcessQuery(ctx context.Context, text string) string {
	return e.Resolve(ctx, text).Response
}

func (e *Engine) Resolve(ctx context.Context, text string) Result {
	start := time.Now()
	normalized := intent.Normalize(text)

	if cached, ok := e.cache.Get(ctx, normalized); ok {
		metrics.CacheHits.WithLabelValues(e.cache.Kind()).Inc()
		metrics.QueryTotal.WithLabelValues(metrics.OutcomeCacheHit).Inc()
		logger.Info("Cache hit for query", zap.String("query", normalized))
		return Result{Response: cached, CacheHit: true}
	}
	metrics.CacheMisses.WithLabelValues(e.cache.Kind()).Inc()

	in := e.classifier.Classify(normalized)
	metrics.IntentTotal.WithLabelValues(in.String()).Inc()
	defer func() {
		metrics.QueryDuration.WithLabelValues(in.String()).Observe(time.Since(start).Seconds())
	}()

	// Unknown answers are recomputed on every call; only handled intents
	// populate the cache.
	if in == intent.Unknown {
		metrics.QueryTotal.WithLabelValues(metrics.OutcomeUnknown).Inc()
		logger.Info("Query not understood", zap.String("query", normalized))
		return Result{Response: MsgUnknown, Intent: in}
	}

	req := Request{Text: strings.TrimSpace(text), Normalized: normalized}
	response, err := e.dispatch(ctx, in, req)
	if err != nil {
		metrics.QueryTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error("Error processing query",
			zap.String("intent", in.String()),
			zap.String("query", normalized),
			zap.Error(err),
		)
		return Result{Response: MsgFailure, Intent: in}
	}

	e.cache.Set(ctx, normalized, response)
	metrics.QueryTotal.WithLabelValues(metrics.OutcomeAnswered).Inc()
	logger.Info("Query processed",
		zap.String("intent", in.String()),
		zap.Duration("latency", time.Since(start)),
	)

	return Result{Response: response, Intent: in}
}

func (e *Engine) dispatch(ctx context.Context, in intent.Intent, req Request) (response string, err error) {
	handler, ok := e.handlers[in]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoHandler, in)
	}

	defer func() {
		if r := recover(); r != nil {
			response, err = "", fmt.Errorf("handler %s panicked: %v", in, r)
		}
	}()

	return handler(ctx, req)
}

// InvalidateCache drops every cached answer. Nothing calls it
// automatically when student data changes.
func (e *Engine) InvalidateCache(ctx context.Context) error {
	if err := e.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate response cache: %w", err)
	}
	logger.Info("Response cache invalidated")
	return nil
}

func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.store.Close()
}
