// Package pipeline runs the fulfillment sequence for one recording job:
// token, fetch, transcribe, analyze, persist, delete.
package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"recording-fulfillment-go/internal/auth"
	"recording-fulfillment-go/internal/logger"
	"recording-fulfillment-go/internal/recording"
	"recording-fulfillment-go/internal/sentiment"
	"recording-fulfillment-go/internal/types"
)

// Stage names used in log entries.
const (
	StageToken      = "token"
	StageFetch      = "fetch"
	StageTranscribe = "transcribe"
	StageAnalyze    = "analyze"
	StagePersist    = "persist"
	StageDelete     = "delete"
)

type TokenProvider interface {
	GetToken(ctx context.Context) (auth.Token, error)
}

type RecordingClient interface {
	FetchFile(ctx context.Context, token, baseURI, fileName string) (recording.Files, error)
	DeleteFile(ctx context.Context, token, baseURI, fileName string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64 string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) (sentiment.Result, error)
}

type ArtifactStore interface {
	Persist(ctx context.Context, contactID string, audio []byte, transcript string, sentimentJSON []byte) error
}

// Pipeline owns the per-job control flow. The first failing stage ends the
// job; nothing is retried and no compensating action runs. The caller has
// already been acknowledged, so outcomes surface only in the log.
type Pipeline struct {
	tokens     TokenProvider
	files      RecordingClient
	recognizer Transcriber
	analyzer   Analyzer
	store      ArtifactStore
	log        *logger.Logger
}

func New(tokens TokenProvider, files RecordingClient, recognizer Transcriber, analyzer Analyzer, store ArtifactStore, log *logger.Logger) *Pipeline {
	return &Pipeline{
		tokens:     tokens,
		files:      files,
		recognizer: recognizer,
		analyzer:   analyzer,
		store:      store,
		log:        log,
	}
}

// Run executes the full sequence for one job. One token is fetched per job
// and reused for the fetch and the final delete; the token always precedes
// any file call, and the delete is only attempted after persist succeeds.
func (p *Pipeline) Run(ctx context.Context, job types.Job) {
	log := p.log.WithFields(logrus.Fields{
		"contact_id": job.ContactID,
		"file_name":  job.FileName,
	})
	log.Info("job received")

	tok, err := p.tokens.GetToken(ctx)
	if err != nil {
		p.fail(log, StageToken, err)
		return
	}
	log.WithField("stage", StageToken).Debug("token acquired")

	files, err := p.files.FetchFile(ctx, tok.AccessToken, tok.BaseURI, job.FileName)
	if err != nil {
		p.fail(log, StageFetch, err)
		return
	}
	audioBase64 := files.Content()
	log.WithField("stage", StageFetch).Debug("recording fetched")

	transcript, err := p.recognizer.Transcribe(ctx, audioBase64)
	if err != nil {
		p.fail(log, StageTranscribe, err)
		return
	}
	log.WithField("stage", StageTranscribe).Debug("transcript produced")

	result, err := p.analyzer.Analyze(ctx, transcript)
	if err != nil {
		p.fail(log, StageAnalyze, err)
		return
	}
	log.WithField("stage", StageAnalyze).Debug("sentiment scored")

	// Raw bytes are only materialized here, at the storage boundary.
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		p.fail(log, StagePersist, fmt.Errorf("decode audio: %w", err))
		return
	}
	sentimentJSON, err := json.Marshal(result)
	if err != nil {
		p.fail(log, StagePersist, fmt.Errorf("encode sentiment: %w", err))
		return
	}
	if err := p.store.Persist(ctx, job.ContactID, audio, transcript, sentimentJSON); err != nil {
		p.fail(log, StagePersist, err)
		return
	}
	log.WithField("stage", StagePersist).Info("artifacts persisted")

	// Best-effort cleanup. A failure here is logged but never reverses the
	// job's success; the copy is already durable.
	if err := p.files.DeleteFile(ctx, tok.AccessToken, tok.BaseURI, job.FileName); err != nil {
		log.WithField("stage", StageDelete).WithError(err).Error("source delete failed")
		return
	}
	log.WithField("stage", StageDelete).Info("job complete")
}

func (p *Pipeline) fail(log *logrus.Entry, stage string, err error) {
	log.WithField("stage", stage).WithError(err).Error("job failed")
}
