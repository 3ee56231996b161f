package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnalyzePreservesTranscript(t *testing.T) {
	var gotReq analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"documentSentiment":{"score":-0.4,"magnitude":1.2}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "en-US")
	res, err := c.Analyze(context.Background(), "the customer was upset")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// Identity: the result carries the original input, not a re-derived text.
	if res.Transcript != "the customer was upset" {
		t.Fatalf("transcript = %q, want original input", res.Transcript)
	}
	if res.Sentiment.Score != -0.4 || res.Sentiment.Magnitude != 1.2 {
		t.Fatalf("sentiment = %+v", res.Sentiment)
	}
	if gotReq.Document.Type != "PLAIN_TEXT" || gotReq.Document.Content != "the customer was upset" {
		t.Fatalf("document = %+v", gotReq.Document)
	}
}

func TestAnalyzeMissingDocumentSentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sentences":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "en-US")
	_, err := c.Analyze(context.Background(), "text")
	var anErr *AnalysisError
	if !errors.As(err, &anErr) {
		t.Fatalf("Analyze() error = %v, want AnalysisError", err)
	}
}

func TestAnalyzeUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "en-US")
	_, err := c.Analyze(context.Background(), "text")
	var anErr *AnalysisError
	if !errors.As(err, &anErr) {
		t.Fatalf("Analyze() error = %v, want AnalysisError", err)
	}
	if anErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", anErr.Status)
	}
}
