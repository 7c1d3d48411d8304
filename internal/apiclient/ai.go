package apiclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"chitieu/internal/core"
)

// Parse implements workflow.Parser with POST /ai/parse.
func (c *Client) Parse(ctx context.Context, text string) (core.Candidate, error) {
	var out parsedDTO
	if err := c.do(ctx, http.MethodPost, "/ai/parse", map[string]string{"text": text}, &out); err != nil {
		return core.Candidate{}, fmt.Errorf("parse: %w", err)
	}
	return out.candidate()
}

// Save implements workflow.CandidateSaver with POST /ai/parse/confirm.
// The backend decides between expense and income from the type field.
func (c *Client) Save(ctx context.Context, cand core.Candidate) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/ai/parse/confirm", transactionDTO{
		Amount:      number(cand.Amount),
		Category:    cand.Category,
		Description: cand.Description,
		Date:        cand.Date.String(),
		Type:        string(cand.Type),
	}, &out)
	if err != nil {
		return "", ledgerError("confirm", err)
	}
	return out.ID, nil
}

type chatChunk struct {
	Content string `json:"content"`
	Error   string `json:"error"`
	Done    bool   `json:"done"`
}

// Chat implements workflow.ChatHandler. The backend streams server-sent
// events; chunks are concatenated until the done event.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	resp, token, err := c.send(ctx, http.MethodPost, "/ai/chat", body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if _, err := c.session.Refresh(ctx, token); err != nil {
			return "", err
		}
		if resp, _, err = c.send(ctx, http.MethodPost, "/ai/chat", body); err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeError(resp)
	}
	return readStream(bufio.NewScanner(resp.Body))
}

func readStream(sc *bufio.Scanner) (string, error) {
	var reply strings.Builder
	for sc.Scan() {
		line := sc.Bytes()
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		var chunk chatChunk
		if json.Unmarshal(line[len("data: "):], &chunk) != nil {
			continue
		}
		switch {
		case chunk.Done:
			return reply.String(), nil
		case chunk.Error != "":
			reply.WriteString(chunk.Error)
			return reply.String(), nil
		default:
			reply.WriteString(chunk.Content)
		}
	}
	if err := sc.Err(); err != nil {
		return reply.String(), fmt.Errorf("read chat stream: %w", err)
	}
	return reply.String(), nil
}
