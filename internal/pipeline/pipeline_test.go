package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"recording-fulfillment-go/internal/auth"
	"recording-fulfillment-go/internal/logger"
	"recording-fulfillment-go/internal/recording"
	"recording-fulfillment-go/internal/sentiment"
	"recording-fulfillment-go/internal/types"
)

// harness fakes all five collaborators and records the call order.
type harness struct {
	mu    sync.Mutex
	calls []string

	token auth.Token

	tokenErr      error
	fetchErr      error
	transcribeErr error
	analyzeErr    error
	persistErr    error
	deleteErr     error

	fetched    map[string]string // fileName -> base64 served
	transcript string

	persisted map[string]persistCall
	deleted   []string
}

type persistCall struct {
	audio         []byte
	transcript    string
	sentimentJSON []byte
}

func newHarness() *harness {
	return &harness{
		token:      auth.Token{AccessToken: "tok-1", BaseURI: "https://api.example.com"},
		fetched:    map[string]string{},
		transcript: "hello world",
		persisted:  map[string]persistCall{},
	}
}

func (h *harness) record(call string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
}

func (h *harness) GetToken(ctx context.Context) (auth.Token, error) {
	h.record("token")
	if h.tokenErr != nil {
		return auth.Token{}, h.tokenErr
	}
	return h.token, nil
}

func (h *harness) FetchFile(ctx context.Context, token, baseURI, fileName string) (recording.Files, error) {
	h.record("fetch")
	if h.fetchErr != nil {
		return recording.Files{}, h.fetchErr
	}
	return recording.Files{File: []string{h.fetched[fileName]}}, nil
}

func (h *harness) DeleteFile(ctx context.Context, token, baseURI, fileName string) error {
	h.record("delete")
	if h.deleteErr != nil {
		return h.deleteErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, fileName)
	return nil
}

func (h *harness) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	h.record("transcribe")
	if h.transcribeErr != nil {
		return "", h.transcribeErr
	}
	return h.transcript, nil
}

func (h *harness) Analyze(ctx context.Context, text string) (sentiment.Result, error) {
	h.record("analyze")
	if h.analyzeErr != nil {
		return sentiment.Result{}, h.analyzeErr
	}
	return sentiment.Result{Transcript: text, Sentiment: sentiment.Score{Score: 0.5, Magnitude: 1}}, nil
}

func (h *harness) Persist(ctx context.Context, contactID string, audio []byte, transcript string, sentimentJSON []byte) error {
	h.record("persist")
	if h.persistErr != nil {
		return h.persistErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.persisted[contactID] = persistCall{audio: audio, transcript: transcript, sentimentJSON: sentimentJSON}
	return nil
}

func (h *harness) pipeline() *Pipeline {
	return New(h, h, h, h, h, logger.New())
}

func TestRunHappyPathOrder(t *testing.T) {
	h := newHarness()
	h.fetched["/rec/abc123.wav"] = base64.StdEncoding.EncodeToString([]byte("audio-bytes"))

	h.pipeline().Run(context.Background(), types.Job{ContactID: "abc123", FileName: "/rec/abc123.wav"})

	want := []string{"token", "fetch", "transcribe", "analyze", "persist", "delete"}
	if len(h.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", h.calls, want)
	}
	for i := range want {
		if h.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, h.calls[i], want[i])
		}
	}

	got, ok := h.persisted["abc123"]
	if !ok {
		t.Fatalf("nothing persisted for abc123")
	}
	if string(got.audio) != "audio-bytes" {
		t.Fatalf("persisted audio = %q, want decoded bytes", got.audio)
	}
	if got.transcript != "hello world" {
		t.Fatalf("persisted transcript = %q", got.transcript)
	}
	var res sentiment.Result
	if err := json.Unmarshal(got.sentimentJSON, &res); err != nil {
		t.Fatalf("sentiment json invalid: %v", err)
	}
	if res.Transcript != "hello world" {
		t.Fatalf("sentiment json transcript = %q", res.Transcript)
	}

	if len(h.deleted) != 1 || h.deleted[0] != "/rec/abc123.wav" {
		t.Fatalf("deleted = %v, want the source file", h.deleted)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	cases := []struct {
		name      string
		setup     func(h *harness)
		wantCalls []string
	}{
		{
			name:      "token failure",
			setup:     func(h *harness) { h.tokenErr = errors.New("auth down") },
			wantCalls: []string{"token"},
		},
		{
			name:      "fetch failure",
			setup:     func(h *harness) { h.fetchErr = errors.New("missing file") },
			wantCalls: []string{"token", "fetch"},
		},
		{
			name:      "transcribe failure",
			setup:     func(h *harness) { h.transcribeErr = errors.New("no results") },
			wantCalls: []string{"token", "fetch", "transcribe"},
		},
		{
			name:      "analyze failure",
			setup:     func(h *harness) { h.analyzeErr = errors.New("no sentiment") },
			wantCalls: []string{"token", "fetch", "transcribe", "analyze"},
		},
		{
			name:      "persist failure blocks delete",
			setup:     func(h *harness) { h.persistErr = errors.New("bucket gone") },
			wantCalls: []string{"token", "fetch", "transcribe", "analyze", "persist"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.fetched["a.wav"] = base64.StdEncoding.EncodeToString([]byte("x"))
			tc.setup(h)

			h.pipeline().Run(context.Background(), types.Job{ContactID: "abc123", FileName: "a.wav"})

			if len(h.calls) != len(tc.wantCalls) {
				t.Fatalf("calls = %v, want %v", h.calls, tc.wantCalls)
			}
			for i := range tc.wantCalls {
				if h.calls[i] != tc.wantCalls[i] {
					t.Fatalf("call %d = %q, want %q", i, h.calls[i], tc.wantCalls[i])
				}
			}
			if len(h.deleted) != 0 {
				t.Fatalf("deleted = %v, want none before persist succeeds", h.deleted)
			}
		})
	}
}

// A failed delete is logged only; the artifacts stay persisted.
func TestRunDeleteFailureAfterPersist(t *testing.T) {
	h := newHarness()
	h.fetched["a.wav"] = base64.StdEncoding.EncodeToString([]byte("x"))
	h.deleteErr = errors.New("delete rejected")

	h.pipeline().Run(context.Background(), types.Job{ContactID: "abc123", FileName: "a.wav"})

	if h.calls[len(h.calls)-1] != "delete" {
		t.Fatalf("last call = %q, want delete", h.calls[len(h.calls)-1])
	}
	if _, ok := h.persisted["abc123"]; !ok {
		t.Fatalf("artifacts should stay persisted after a failed delete")
	}
}

func TestRunBadBase64FailsBeforePersist(t *testing.T) {
	h := newHarness()
	h.fetched["a.wav"] = "not!!base64"

	h.pipeline().Run(context.Background(), types.Job{ContactID: "abc123", FileName: "a.wav"})

	for _, c := range h.calls {
		if c == "persist" || c == "delete" {
			t.Fatalf("call %q should not run after a decode failure", c)
		}
	}
}

func TestRunConcurrentJobsAreIsolated(t *testing.T) {
	h := newHarness()
	h.fetched["a.wav"] = base64.StdEncoding.EncodeToString([]byte("audio-a"))
	h.fetched["b.wav"] = base64.StdEncoding.EncodeToString([]byte("audio-b"))
	p := h.pipeline()

	var wg sync.WaitGroup
	for _, job := range []types.Job{
		{ContactID: "contact-a", FileName: "a.wav"},
		{ContactID: "contact-b", FileName: "b.wav"},
	} {
		wg.Add(1)
		go func(j types.Job) {
			defer wg.Done()
			p.Run(context.Background(), j)
		}(job)
	}
	wg.Wait()

	a, okA := h.persisted["contact-a"]
	b, okB := h.persisted["contact-b"]
	if !okA || !okB {
		t.Fatalf("persisted = %v, want both contacts", h.persisted)
	}
	if string(a.audio) != "audio-a" || string(b.audio) != "audio-b" {
		t.Fatalf("audio crossed jobs: a=%q b=%q", a.audio, b.audio)
	}
	if len(h.deleted) != 2 {
		t.Fatalf("deleted = %v, want both source files", h.deleted)
	}
}
