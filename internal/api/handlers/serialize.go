package handlers

import (
	"context"
	"sync"

	"github.com/student-bot/backend/internal/query"
)

// Resolver is the part of the query engine the transport layer uses.
type Resolver interface {
	Resolve(ctx context.Context, text string) query.Result
	InvalidateCache(ctx context.Context) error
}

// Serialized guards a Resolver that is not safe for concurrent use.
type Serialized struct {
	mu       sync.Mutex
	resolver Resolver
}

func Serialize(r Resolver) *Serialized {
	return &Serialized{resolver: r}
}

func (s *Serialized) Resolve(ctx context.Context, text string) query.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.Resolve(ctx, text)
}

func (s *Serialized) InvalidateCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.InvalidateCache(ctx)
}
