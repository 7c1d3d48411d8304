package parsing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chitieu/internal/cache"
	"chitieu/internal/core"
)

// Parser is satisfied by RuleParser, Gemini and the remote API client.
type Parser interface {
	Parse(ctx context.Context, text string) (core.Candidate, error)
}

// CachedParser memoizes successful parses. Keys include today's date because
// relative words like "hôm qua" resolve differently tomorrow.
type CachedParser struct {
	next  Parser
	cache *cache.LRUCache[core.Candidate]
	now   func() time.Time
}

func NewCachedParser(next Parser, c *cache.LRUCache[core.Candidate]) *CachedParser {
	return &CachedParser{next: next, cache: c, now: time.Now}
}

func (p *CachedParser) Parse(ctx context.Context, text string) (core.Candidate, error) {
	key := core.DateOf(p.now()).String() + "|" + strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if c, ok := p.cache.Get(key); ok {
		slog.DebugContext(ctx, "Parse cache hit", "key", key)
		c.OriginalText = text
		return c, nil
	}

	c, err := p.next.Parse(ctx, text)
	if err != nil {
		return core.Candidate{}, err
	}
	p.cache.Set(key, c)
	return c, nil
}
