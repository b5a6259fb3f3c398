package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dx-advisor/server/internal/advisor/model"
	errx "github.com/dx-advisor/server/internal/core/error"
)

func TestSubmitterDisabledWithoutURL(t *testing.T) {
	s := NewSubmitter(model.TelemetryConfig{})
	assert.False(t, s.Enabled())
	require.NoError(t, s.Submit(context.Background(), "id-1", Payload{}))

	var nilSubmitter *Submitter
	assert.False(t, nilSubmitter.Enabled())
}

func TestSubmitPostsEnvelope(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSubmitter(model.TelemetryConfig{URL: srv.URL, Timeout: 2})
	err := s.Submit(context.Background(), "corr-42", Payload{
		UserEmail:      "ada@example.com",
		FirstQuestion:  "improve sales reporting",
		Filenames:      []string{"plan.csv"},
		StartTimestamp: "2026-08-30 10:00:00",
		EndTimestamp:   "2026-08-30 10:05:00",
	})
	require.NoError(t, err)

	require.Len(t, got.Data, 1)
	assert.Equal(t, "corr-42", got.Data[0].AssociationID)

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(got.Data[0].ActualValue), &p))
	assert.Equal(t, "ada@example.com", p.UserEmail)
	assert.Equal(t, "improve sales reporting", p.FirstQuestion)
	assert.Equal(t, []string{"plan.csv"}, p.Filenames)
	assert.Equal(t, "2026-08-30 10:00:00", p.StartTimestamp)
	assert.Equal(t, "2026-08-30 10:05:00", p.EndTimestamp)
}

func TestSubmitFillsMissingEndTimestamp(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	s := NewSubmitter(model.TelemetryConfig{URL: srv.URL})
	require.NoError(t, s.Submit(context.Background(), "corr-1", Payload{UserEmail: "a@b.c"}))

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(got.Data[0].ActualValue), &p))
	assert.NotEmpty(t, p.EndTimestamp)
}

func TestSubmitClassifiesCollectorRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewSubmitter(model.TelemetryConfig{URL: srv.URL})
	err := s.Submit(context.Background(), "corr-1", Payload{})
	require.Error(t, err)
	assert.Equal(t, errx.KindTelemetry, errx.KindOf(err))
}

func TestSubmitClassifiesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	s := NewSubmitter(model.TelemetryConfig{URL: srv.URL})
	err := s.Submit(context.Background(), "corr-1", Payload{})
	require.Error(t, err)
	assert.Equal(t, errx.KindTelemetry, errx.KindOf(err))
}
