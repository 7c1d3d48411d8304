package cli

import (
	"context"
	"fmt"

	"chitieu/internal/apiclient"
	"chitieu/internal/cache"
	"chitieu/internal/config"
	"chitieu/internal/core"
	"chitieu/internal/metrics"
	"chitieu/internal/parsing"
	"chitieu/internal/workflow"
)

// ParseServices is the parse and chat pair the workflow runs on.
type ParseServices struct {
	Parser workflow.Parser
	// Chat is nil for the rule parser, which has no conversational model.
	Chat  workflow.ChatHandler
	Cache *cache.LRUCache[core.Candidate]
	Name  string
}

// BuildParseServices picks the parse service: the remote API when the
// backend is remote, otherwise Gemini or the keyword rules per PARSER.
// The result is timed by m and memoized in an LRU cache.
func BuildParseServices(ctx context.Context, cfg *config.Config, remote *apiclient.Client, m *metrics.Metrics) (ParseServices, error) {
	var svc ParseServices
	var inner workflow.Parser

	switch {
	case remote != nil:
		svc.Name = "remote"
		inner, svc.Chat = remote, remote
	case cfg.Parser == config.ParserGemini:
		g, err := parsing.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return ParseServices{}, fmt.Errorf("init gemini parser: %w", err)
		}
		svc.Name = config.ParserGemini
		inner, svc.Chat = g, g
	default:
		catalog, err := parsing.LoadCatalog(cfg.KeywordsFile)
		if err != nil {
			return ParseServices{}, err
		}
		svc.Name = config.ParserRules
		inner = parsing.NewRuleParser(catalog)
	}

	svc.Cache = cache.NewLRUCache[core.Candidate](cfg.ParseCacheSize, cfg.ParseCacheTTL)
	if err := m.RegisterCacheStats("parse", svc.Cache.Stats); err != nil {
		return ParseServices{}, fmt.Errorf("register cache metrics: %w", err)
	}
	svc.Parser = parsing.NewCachedParser(m.InstrumentParser(svc.Name, inner), svc.Cache)
	return svc, nil
}
