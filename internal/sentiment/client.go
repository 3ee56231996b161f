// Package sentiment scores transcript text via a remote analyzer.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Score is the document-level sentiment returned by the analyzer.
type Score struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// Result pairs the transcript with its score so downstream consumers never
// re-correlate them. Transcript is always the original input text.
type Result struct {
	Transcript string `json:"transcript"`
	Sentiment  Score  `json:"sentiment"`
}

// AnalysisError reports a failed analysis or a response with no
// document-level sentiment.
type AnalysisError struct {
	Status int
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("analyze: status=%d %s", e.Status, e.Reason)
	}
	return "analyze: " + e.Reason
}

func (e *AnalysisError) Unwrap() error { return e.Err }

type analyzeRequest struct {
	Document     document `json:"document"`
	EncodingType string   `json:"encodingType"`
}

type document struct {
	Type     string `json:"type"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

type analyzeResponse struct {
	DocumentSentiment *Score `json:"documentSentiment"`
}

type Client struct {
	client   *http.Client
	url      string
	language string
}

func NewClient(client *http.Client, url, language string) *Client {
	return &Client{client: client, url: url, language: language}
}

// Analyze submits the text as a plain-text document and returns it paired
// with the document-level score.
func (c *Client) Analyze(ctx context.Context, text string) (Result, error) {
	payload, _ := json.Marshal(analyzeRequest{
		Document: document{
			Type:     "PLAIN_TEXT",
			Language: c.language,
			Content:  text,
		},
		EncodingType: "UTF8",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, &AnalysisError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, &AnalysisError{Reason: "analyze request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &AnalysisError{Status: resp.StatusCode, Reason: string(body)}
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &AnalysisError{Reason: fmt.Sprintf("json decode error: %v body=%s", err, string(body)), Err: err}
	}
	if parsed.DocumentSentiment == nil {
		return Result{}, &AnalysisError{Reason: "response missing documentSentiment"}
	}
	return Result{Transcript: text, Sentiment: *parsed.DocumentSentiment}, nil
}
