// Package speech converts base64 audio to text via a remote recognizer.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TranscriptionError reports a failed recognition or a response whose
// result chain is broken at any link.
type TranscriptionError struct {
	Status int
	Reason string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transcribe: status=%d %s", e.Status, e.Reason)
	}
	return "transcribe: " + e.Reason
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

type recognizeRequest struct {
	Audio  recognizeAudio  `json:"audio"`
	Config recognizeConfig `json:"config"`
}

type recognizeAudio struct {
	Content string `json:"content"`
}

type recognizeConfig struct {
	LanguageCode string `json:"languageCode"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

type Client struct {
	client       *http.Client
	url          string
	languageCode string
}

func NewClient(client *http.Client, url, languageCode string) *Client {
	return &Client{client: client, url: url, languageCode: languageCode}
}

// Transcribe sends the audio and the fixed language code to the recognizer
// and returns the primary transcript. A missing result, alternative, or
// transcript at any depth fails the call; there is no empty-string success.
func (c *Client) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	payload, _ := json.Marshal(recognizeRequest{
		Audio:  recognizeAudio{Content: audioBase64},
		Config: recognizeConfig{LanguageCode: c.languageCode},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", &TranscriptionError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TranscriptionError{Reason: "recognize request failed", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TranscriptionError{Status: resp.StatusCode, Reason: string(body)}
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &TranscriptionError{Reason: fmt.Sprintf("json decode error: %v body=%s", err, string(body)), Err: err}
	}
	if len(parsed.Results) == 0 {
		return "", &TranscriptionError{Reason: "response has no results"}
	}
	if len(parsed.Results[0].Alternatives) == 0 {
		return "", &TranscriptionError{Reason: "primary result has no alternatives"}
	}
	transcript := parsed.Results[0].Alternatives[0].Transcript
	if transcript == "" {
		return "", &TranscriptionError{Reason: "primary alternative has no transcript"}
	}
	return transcript, nil
}
