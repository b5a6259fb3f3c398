// Package telemetry posts conversation outcome records to an external
// collector. Submission is fire-and-forget: failures are logged and
// swallowed, never surfaced to the user, never blocking the main flow.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dx-advisor/server/internal/advisor/model"
	errx "github.com/dx-advisor/server/internal/core/error"
	logx "github.com/dx-advisor/server/pkg/logger"
)

const timestampLayout = "2006-01-02 15:04:05"

// Payload is one conversation outcome record.
type Payload struct {
	UserEmail      string   `json:"user_email"`
	FirstQuestion  string   `json:"first_question"`
	Filenames      []string `json:"filenames"`
	StartTimestamp string   `json:"startTimestamp"`
	EndTimestamp   string   `json:"endTimestamp"`
}

// envelope is the collector's wire format: the payload travels as an
// actual value keyed by the correlation id.
type envelope struct {
	Data []record `json:"data"`
}

type record struct {
	AssociationID string `json:"associationId"`
	ActualValue   string `json:"actualValue"`
}

type Submitter struct {
	url    string
	client *http.Client
}

func NewSubmitter(cfg model.TelemetryConfig) *Submitter {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Submitter{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a collector endpoint is configured.
func (s *Submitter) Enabled() bool {
	return s != nil && s.url != ""
}

// Submit posts one record. The returned error is for logging only;
// callers must not propagate it into the conversation flow.
func (s *Submitter) Submit(ctx context.Context, correlationID string, p Payload) error {
	if !s.Enabled() {
		return nil
	}
	if p.EndTimestamp == "" {
		p.EndTimestamp = time.Now().UTC().Format(timestampLayout)
	}

	actual, err := json.Marshal(p)
	if err != nil {
		return errx.Telemetry(err)
	}
	body, err := json.Marshal(envelope{Data: []record{{
		AssociationID: correlationID,
		ActualValue:   string(actual),
	}}})
	if err != nil {
		return errx.Telemetry(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return errx.Telemetry(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errx.Telemetry(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errx.Telemetry(errx.New(nil, resp.StatusCode, "telemetry collector rejected submission"))
	}
	return nil
}

// SubmitAsync fires Submit on its own goroutine with a detached timeout,
// logging the result either way.
func (s *Submitter) SubmitAsync(correlationID string, p Payload) {
	if !s.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
		defer cancel()
		if err := s.Submit(ctx, correlationID, p); err != nil {
			logx.Error().Err(err).Str("correlation_id", correlationID).Msg("telemetry submission failed")
			return
		}
		logx.Info().Str("correlation_id", correlationID).Msg("telemetry submitted")
	}()
}
