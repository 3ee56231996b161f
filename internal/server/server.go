// Package server exposes the webhook endpoint that triggers fulfillment.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"recording-fulfillment-go/internal/logger"
	"recording-fulfillment-go/internal/types"
)

// Runner starts one fulfillment run. It reports nothing back; the webhook
// caller was already acknowledged.
type Runner interface {
	Run(ctx context.Context, job types.Job)
}

type Server struct {
	pipeline Runner
	log      *logger.Logger
}

func New(pipeline Runner, log *logger.Logger) *Server {
	return &Server{pipeline: pipeline, log: log}
}

// Webhook handles the recording notification. The acknowledgment is written
// first and the pipeline spawned after, so a slow or failing job is never
// observable to the caller. One goroutine per request; the run gets a fresh
// background context because it outlives the request.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "webhook")

	if r.Method != http.MethodPost {
		reqLog.Warn("method not allowed")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var job types.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		reqLog.WithError(err).Warn("bad request body")
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if job.ContactID == "" || job.FileName == "" {
		reqLog.Warn("missing contactId or fileName")
		http.Error(w, "missing contactId or fileName", http.StatusBadRequest)
		return
	}
	reqLog.WithFields(logrus.Fields{
		"contact_id": job.ContactID,
		"file_name":  job.FileName,
	}).Info("recording notification received")

	w.WriteHeader(http.StatusNoContent)

	go s.pipeline.Run(context.Background(), job)
}
