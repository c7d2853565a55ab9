package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/models"
)

func TestNew_DisabledWithoutURL(t *testing.T) {
	n := New(config.WebhookConfig{})
	assert.Nil(t, n)

	// Nil notifier is a no-op.
	assert.NotPanics(t, func() {
		n.Notify(models.Success(nil))
		n.Wait()
	})
}

func TestEventFor(t *testing.T) {
	ok := models.Success([]models.ProjectRecord{models.NewProjectRecord()})
	ok.ID = "abc"
	ev := EventFor(ok)
	assert.Equal(t, EventCompleted, ev.Type)
	assert.Equal(t, "abc", ev.ScrapeID)
	assert.NotZero(t, ev.Timestamp)

	failed := models.Failure(errors.New("boom"))
	assert.Equal(t, EventFailed, EventFor(failed).Type)
}

func TestDeliver_SignsBody(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{URL: srv.URL, Secret: "s3cret"})
	result := models.Success(nil)
	result.ID = "id-1"

	require.NoError(t, n.Deliver(context.Background(), EventFor(result)))
	assert.Equal(t, Sign("s3cret", gotBody), gotSig)

	var payload struct {
		Type     string          `json:"type"`
		ScrapeID string          `json:"scrape_id"`
		Data     json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, EventCompleted, payload.Type)
	assert.Equal(t, "id-1", payload.ScrapeID)
	assert.JSONEq(t, `{"status":"success","data":[],"total_projects":0}`, string(payload.Data))
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var sig atomic.Value
	sig.Store("unset")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig.Store(r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{URL: srv.URL})
	require.NoError(t, n.Deliver(context.Background(), EventFor(models.Success(nil))))
	assert.Equal(t, "", sig.Load())
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{URL: srv.URL})
	err := n.Deliver(context.Background(), EventFor(models.Success(nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotify_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{URL: srv.URL})
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}

	n.Notify(models.Failure(errors.New("boom")))
	n.Wait()
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotify_GivesUpAfterAllAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{URL: srv.URL})
	n.delays = []time.Duration{0, time.Millisecond}

	n.Notify(models.Success(nil))
	n.Wait()
	assert.Equal(t, int32(2), calls.Load())
}
