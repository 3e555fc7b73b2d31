package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"upmon/config"
	"upmon/pkg/httpclient"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordedMail struct {
	auth string
	body mailRequest
}

func newMailServer(t *testing.T, status int) (*httptest.Server, *[]recordedMail) {
	t.Helper()
	var mu sync.Mutex
	var got []recordedMail

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body mailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		mu.Lock()
		got = append(got, recordedMail{auth: r.Header.Get("Authorization"), body: body})
		mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestMailer(apiURL string) *Mailer {
	logger := zerolog.Nop()
	return NewMailer(&config.MailConfig{
		APIURL:     apiURL,
		APIKey:     "test-key",
		From:       "Upmon <alerts@example.com>",
		BatchSize:  2,
		BatchPause: time.Millisecond,
	}, httpclient.NewHttpClient(), &logger)
}

func TestSend(t *testing.T) {
	srv, got := newMailServer(t, http.StatusOK)
	m := newTestMailer(srv.URL)

	msg := DownMessage("user@example.com", "https://example.com", "https://upmon.dev/dashboard", time.Now())
	require.NoError(t, m.Send(context.Background(), msg))

	require.Len(t, *got, 1)
	sent := (*got)[0]
	require.Equal(t, "Bearer test-key", sent.auth)
	require.Equal(t, "Upmon <alerts@example.com>", sent.body.From)
	require.Equal(t, "user@example.com", sent.body.To)
	require.Equal(t, "Website is Down | Upmon", sent.body.Subject)
	require.Contains(t, sent.body.Text, "https://example.com")
	require.Contains(t, sent.body.HTML, "https://upmon.dev/dashboard")
}

func TestSend_APIFailure(t *testing.T) {
	srv, _ := newMailServer(t, http.StatusTooManyRequests)
	m := newTestMailer(srv.URL)

	err := m.Send(context.Background(), Message{To: "user@example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestSendBatch_FailuresDoNotStopTheRest(t *testing.T) {
	var mu sync.Mutex
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := newTestMailer(srv.URL)
	m.SendBatch(context.Background(), []Message{
		{To: "a@example.com"},
		{To: "b@example.com"},
		{To: "c@example.com"},
	})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, calls)
}
