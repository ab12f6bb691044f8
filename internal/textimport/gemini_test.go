// internal/textimport/gemini_test.go
package textimport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateResponse(t *testing.T, payload string) []byte {
	t.Helper()
	data, err := json.Marshal(generateResponse{
		Candidates: []struct {
			Content content `json:"content"`
		}{
			{Content: content{Parts: []part{{Text: payload}}}},
		},
	})
	require.NoError(t, err)
	return data
}

func TestParseBooks(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)

		w.Write(candidateResponse(t,
			`[{"title":"The Hobbit","author":"J.R.R. Tolkien","coverImage":"https://picsum.photos/seed/hobbit/300/400"},`+
				`{"title":"Emma","author":"Jane Austen","coverImage":"https://picsum.photos/seed/emma/300/400"}]`))
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	books, err := parser.ParseBooks(context.Background(), "The Hobbit\tJ.R.R. Tolkien\nEmma\tJane Austen")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "The Hobbit", books[0].Title)
	assert.Equal(t, "Jane Austen", books[1].Author)
	assert.Equal(t, int32(1), requests.Load())
}

func TestParseStudents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateResponse(t, `[{"name":"Eve"},{"name":"Frank"}]`))
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	students, err := parser.ParseStudents(context.Background(), "Eve\nFrank")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Eve", students[0].Name)
}

func TestParseBooksRejectsIncompleteCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateResponse(t, `[{"title":"No Author","author":"","coverImage":"x"}]`))
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	_, err := parser.ParseBooks(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestParseBooksRejectsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateResponse(t, `this is not json`))
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	_, err := parser.ParseBooks(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestParseBooksNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	_, err := parser.ParseBooks(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestParseBooksRetriesTransientFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(candidateResponse(t, `[{"title":"Dune","author":"Frank Herbert","coverImage":"x"}]`))
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	books, err := parser.ParseBooks(context.Background(), "Dune")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, int32(2), requests.Load())
}

func TestParseBooksDoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	_, err := parser.ParseBooks(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Equal(t, int32(1), requests.Load())
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	parser := newGeminiParser(server.URL, "test-key")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := parser.ParseBooks(ctx, "whatever")
		assert.ErrorIs(t, err, ErrParseFailure)
	}

	// The breaker is open now; the upstream is not called again.
	_, err := parser.ParseBooks(ctx, "whatever")
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Equal(t, int32(3), requests.Load())
}
