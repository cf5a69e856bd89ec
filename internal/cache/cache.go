// Package cache holds the response cache policies used by the query
// engine. Keys are normalized queries, values are final response text.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	// Invalidate drops every entry, e.g. after the student table changes.
	Invalidate(ctx context.Context) error
	Len() int
	// Kind labels metrics and logs.
	Kind() string
}

// Unbounded never evicts and never expires. It is not safe for
// concurrent use; callers serialize access.
type Unbounded struct {
	entries map[string]string
}

func NewUnbounded() *Unbounded {
	return &Unbounded{entries: make(map[string]string)}
}

func (c *Unbounded) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *Unbounded) Set(_ context.Context, key, value string) {
	c.entries[key] = value
}

func (c *Unbounded) Invalidate(context.Context) error {
	c.entries = make(map[string]string)
	return nil
}

func (c *Unbounded) Len() int {
	return len(c.entries)
}

func (c *Unbounded) Kind() string {
	return "memory"
}

// LRU keeps at most size entries, evicting the least recently used.
type LRU struct {
	entries *lru.Cache[string, string]
}

func NewLRU(size int) (*LRU, error) {
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRU{entries: entries}, nil
}

func (c *LRU) Get(_ context.Context, key string) (string, bool) {
	return c.entries.Get(key)
}

func (c *LRU) Set(_ context.Context, key, value string) {
	c.entries.Add(key, value)
}

func (c *LRU) Invalidate(context.Context) error {
	c.entries.Purge()
	return nil
}

func (c *LRU) Len() int {
	return c.entries.Len()
}

func (c *LRU) Kind() string {
	return "lru"
}
