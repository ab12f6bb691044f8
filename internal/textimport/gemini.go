// internal/textimport/gemini.go
package textimport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"libralend/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"

	maxAttempts = 3
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GeminiParser implements Parser against the Gemini generateContent API.
// Calls go through a rate limiter and a circuit breaker, with a bounded
// retry for transient upstream failures, so a flaky or rate-limited model
// endpoint cannot stall the import surface.
type GeminiParser struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGeminiParser creates a parser using the given API key.
func NewGeminiParser(apiKey string) *GeminiParser {
	return newGeminiParser(defaultBaseURL, apiKey)
}

func newGeminiParser(baseURL, apiKey string) *GeminiParser {
	return &GeminiParser{
		baseURL: baseURL,
		model:   defaultModel,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "gemini",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string       `json:"responseMimeType"`
	ResponseSchema   schemaObject `json:"responseSchema"`
}

type schemaObject struct {
	Type       string                  `json:"type"`
	Items      *schemaObject           `json:"items,omitempty"`
	Properties map[string]schemaObject `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
	Desc       string                  `json:"description,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

var bookSchema = schemaObject{
	Type: "ARRAY",
	Items: &schemaObject{
		Type: "OBJECT",
		Properties: map[string]schemaObject{
			"title":      {Type: "STRING", Desc: "Book title"},
			"author":     {Type: "STRING", Desc: "Author name"},
			"coverImage": {Type: "STRING", Desc: "Cover image URL from picsum.photos"},
		},
		Required: []string{"title", "author", "coverImage"},
	},
}

var studentSchema = schemaObject{
	Type: "ARRAY",
	Items: &schemaObject{
		Type: "OBJECT",
		Properties: map[string]schemaObject{
			"name": {Type: "STRING", Desc: "Student name"},
		},
		Required: []string{"name"},
	},
}

// ParseBooks asks the model for a JSON array of book candidates and
// re-validates every entry before handing it back.
func (p *GeminiParser) ParseBooks(ctx context.Context, text string) ([]domain.BookInput, error) {
	prompt := "Parse the following text, copied from a spreadsheet, into a JSON array of book objects. " +
		"Each object must have 'title' (string) and 'author' (string) properties. " +
		"Based on the title, generate a plausible 'coverImage' URL from picsum.photos. Text:\n\n" + text

	raw, err := p.generate(ctx, prompt, bookSchema)
	if err != nil {
		return nil, err
	}

	var books []domain.BookInput
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("decode book candidates: %v: %w", err, ErrParseFailure)
	}
	for i, b := range books {
		if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" {
			return nil, fmt.Errorf("candidate %d is missing title or author: %w", i+1, ErrParseFailure)
		}
	}
	return books, nil
}

// ParseStudents asks the model for a JSON array of student candidates.
func (p *GeminiParser) ParseStudents(ctx context.Context, text string) ([]domain.StudentInput, error) {
	prompt := "Parse the following text into a JSON array of student objects. " +
		"Each object must have a 'name' (string) property. Text:\n\n" + text

	raw, err := p.generate(ctx, prompt, studentSchema)
	if err != nil {
		return nil, err
	}

	var students []domain.StudentInput
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, fmt.Errorf("decode student candidates: %v: %w", err, ErrParseFailure)
	}
	for i, s := range students {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("candidate %d is missing a name: %w", i+1, ErrParseFailure)
		}
	}
	return students, nil
}

// generate runs one structured-output completion and returns the raw JSON
// text of the first candidate.
func (p *GeminiParser) generate(ctx context.Context, prompt string, schema schemaObject) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %v: %w", err, ErrParseFailure)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %v: %w", err, ErrParseFailure)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		data, err := backoff.Retry(ctx, func() ([]byte, error) {
			return p.post(ctx, body)
		}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxAttempts))
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %v: %w", err, ErrParseFailure)
	}

	var resp generateResponse
	if err := json.Unmarshal(result.([]byte), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %v: %w", err, ErrParseFailure)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("model returned no candidates: %w", ErrParseFailure)
	}
	return []byte(strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)), nil
}

func (p *GeminiParser) post(ctx context.Context, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return data, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("transient upstream status %d", resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("upstream status %d", resp.StatusCode))
	}
}
