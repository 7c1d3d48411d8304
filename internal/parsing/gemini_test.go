package parsing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"chitieu/internal/core"
)

type fakeGenerator struct {
	reply  string
	err    error
	model  string
	config *genai.GenerateContentConfig
	input  string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.input = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func newTestGemini(gen *fakeGenerator) *Gemini {
	g := newGemini(gen, "")
	g.now = fixedNow
	return g
}

func TestGemini_Parse(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" +
		`{"amount": 45000, "type": "expense", "category": "Food", "description": " phở bò ", "date": "2025-11-11"}` +
		"\n```"}

	c, err := newTestGemini(gen).Parse(context.Background(), "hôm qua ăn phở bò 45k")
	require.NoError(t, err)

	assert.Equal(t, int64(45000), c.Amount.Amount.IntPart())
	assert.Equal(t, core.Expense, c.Type)
	assert.Equal(t, "food", c.Category)
	assert.Equal(t, "phở bò", c.Description)
	assert.Equal(t, core.NewDate(2025, 11, 11), c.Date)
	assert.Equal(t, "hôm qua ăn phở bò 45k", c.OriginalText)

	assert.Equal(t, DefaultGeminiModel, gen.model)
	assert.Equal(t, "hôm qua ăn phở bò 45k", gen.input)
	require.NotNil(t, gen.config)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Contains(t, gen.config.SystemInstruction.Parts[0].Text, "Today is 2025-11-12")
}

func TestGemini_ParseMissingDateIsToday(t *testing.T) {
	gen := &fakeGenerator{reply: `{"amount": "15000000", "type": "income", "category": "salary", "description": "lương"}`}

	c, err := newTestGemini(gen).Parse(context.Background(), "lương 15tr")
	require.NoError(t, err)

	assert.Equal(t, core.NewDate(2025, 11, 12), c.Date)
	assert.Equal(t, core.Income, c.Type)
}

func TestGemini_ParseErrors(t *testing.T) {
	boom := errors.New("quota exceeded")

	tests := []struct {
		name    string
		gen     *fakeGenerator
		wantErr error
	}{
		{"transport error", &fakeGenerator{err: boom}, boom},
		{"empty reply", &fakeGenerator{reply: "  "}, ErrEmptyResponse},
		{"zero amount", &fakeGenerator{reply: `{"amount": 0, "type": "expense"}`}, core.ErrInvalidAmount},
		{"bad date", &fakeGenerator{reply: `{"amount": 1, "date": "yesterday"}`}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestGemini(tt.gen).Parse(context.Background(), "x")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("not JSON", func(t *testing.T) {
		_, err := newTestGemini(&fakeGenerator{reply: "xin lỗi, tôi không hiểu"}).Parse(context.Background(), "x")
		assert.Error(t, err)
	})
}

func TestGemini_Chat(t *testing.T) {
	gen := &fakeGenerator{reply: "\n- Ăn uống: 2.000.000 ₫ (60%)\n- Di chuyển (40%)\n"}

	reply, err := newTestGemini(gen).Chat(context.Background(), "tháng này tôi tiêu gì?")
	require.NoError(t, err)

	assert.Equal(t, "- Ăn uống: 2.000.000 ₫ (60%)\n- Di chuyển (40%)", reply)
	assert.Empty(t, gen.config.ResponseMIMEType)
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"chatter", `Here it is: {"a":1} hope it helps`, `{"a":1}`},
		{"single line fence", "```", "```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}
