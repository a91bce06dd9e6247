package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailjet_Send(t *testing.T) {
	var gotBody []byte
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewMailjet(MailjetConfig{
		APIURL:      srv.URL,
		PublicKey:   "pub",
		PrivateKey:  "priv",
		FromEmail:   "noreply@example.com",
		DownloadURL: "https://share.example.com/download",
	})

	err := n.Send(context.Background(), "rcpt@example.com", "transfer-1", "Alice")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotAuth, "Basic "))

	var payload mailjetPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Messages, 1)
	msg := payload.Messages[0]
	assert.Equal(t, "rcpt@example.com", msg.To[0].Email)
	assert.Contains(t, msg.TextPart, "transfer-1")
	assert.Contains(t, msg.TextPart, "Alice")
	assert.NotContains(t, strings.ToLower(msg.TextPart), "passphrase")
}

func TestMailjet_Send_DefaultSenderName(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewMailjet(MailjetConfig{APIURL: srv.URL})
	require.NoError(t, n.Send(context.Background(), "rcpt@example.com", "t1", ""))

	var payload mailjetPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, defaultSenderName, payload.Messages[0].From.Name)
}

func TestMailjet_Send_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewMailjet(MailjetConfig{APIURL: srv.URL})
	err := n.Send(context.Background(), "rcpt@example.com", "t1", "")
	assert.ErrorContains(t, err, "unexpected status 401")
}
