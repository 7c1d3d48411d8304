package parsing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"chitieu/internal/core"
)

const DefaultGeminiModel = "gemini-2.5-flash"

var ErrEmptyResponse = errors.New("model returned an empty response")

// generator is the part of *genai.Models the parser needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini parses transactions and answers finance questions with a Gemini
// model. It serves both the parse service and the chat fallback when no
// remote backend is configured.
type Gemini struct {
	models generator
	model  string
	now    func() time.Time
}

// NewGemini connects to the Gemini API with an API key.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, model), nil
}

func newGemini(models generator, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: models, model: model, now: time.Now}
}

// Parse asks the model for a strict JSON transaction object.
func (g *Gemini) Parse(ctx context.Context, text string) (core.Candidate, error) {
	today := core.DateOf(g.now())
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
		SystemInstruction: genai.NewContentFromText(parsePrompt(today), genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(text), config)
	if err != nil {
		return core.Candidate{}, fmt.Errorf("generate content: %w", err)
	}
	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return core.Candidate{}, ErrEmptyResponse
	}

	c, err := decodeCandidate(cleanModelJSON(raw), today)
	if err != nil {
		slog.WarnContext(ctx, "Gemini returned unusable JSON", "model", g.model, "error", err)
		return core.Candidate{}, err
	}
	c.OriginalText = text
	return c, nil
}

// Chat answers a free-form question in Vietnamese.
func (g *Gemini) Chat(ctx context.Context, message string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatPrompt, genai.RoleUser),
	}
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(message), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}

const chatPrompt = "You are a personal finance assistant for a Vietnamese user. " +
	"Answer in Vietnamese, concisely. When you break spending down by category, " +
	"use one bullet per category in the form \"- Name: amount (NN%)\"."

func parsePrompt(today core.Date) string {
	var b strings.Builder
	b.WriteString("You extract a single personal finance transaction from the user's message.\n")
	b.WriteString("Amounts are in VND. \"k\" means thousand, \"tr\", \"triệu\" and \"củ\" mean million, \"1tr5\" is 1500000.\n")
	fmt.Fprintf(&b, "Today is %s. Resolve relative dates such as \"hôm qua\" against it.\n\n", today)
	b.WriteString("Output STRICT JSON only: one object with these fields:\n")
	b.WriteString("- \"amount\": number, positive\n")
	b.WriteString("- \"type\": \"expense\" or \"income\"\n")
	b.WriteString("- \"category\": one of the codes below for that type\n")
	b.WriteString("- \"description\": short string, without the amount\n")
	b.WriteString("- \"date\": string, \"YYYY-MM-DD\"\n\n")
	fmt.Fprintf(&b, "Expense categories: %s\n", strings.Join(core.Categories(core.Expense), ", "))
	fmt.Fprintf(&b, "Income categories: %s\n\n", strings.Join(core.Categories(core.Income), ", "))
	b.WriteString("Do NOT wrap the response in code fences. Output must begin with \"{\" and end with \"}\".\n")
	return b.String()
}

type modelCandidate struct {
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

func decodeCandidate(raw string, today core.Date) (core.Candidate, error) {
	var mc modelCandidate
	if err := json.Unmarshal([]byte(raw), &mc); err != nil {
		return core.Candidate{}, fmt.Errorf("decode model JSON: %w", err)
	}

	amount, err := decimal.NewFromString(mc.Amount.String())
	if err != nil || !amount.IsPositive() {
		return core.Candidate{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, mc.Amount)
	}

	c := core.Candidate{
		Amount:      core.MoneyFrom(amount),
		Type:        core.TransactionType(strings.ToLower(mc.Type)),
		Category:    strings.ToLower(mc.Category),
		Description: strings.TrimSpace(mc.Description),
		Date:        today,
	}
	if mc.Date != "" {
		d, err := core.ParseDate(mc.Date)
		if err != nil {
			return core.Candidate{}, fmt.Errorf("model date %q: %w", mc.Date, err)
		}
		c.Date = d
	}
	return c, nil
}

// cleanModelJSON strips Markdown fences and any chatter around the JSON
// object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
