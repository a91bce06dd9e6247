package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encryptshare/encryptshare/internal/client/api"
	"github.com/encryptshare/encryptshare/internal/client/config"
	"github.com/encryptshare/encryptshare/internal/common"
	"github.com/encryptshare/encryptshare/internal/credential"
)

func stubPassphrase(t *testing.T, pass string) {
	t.Helper()
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte(pass), nil }
	t.Cleanup(func() { readPassword = orig })
}

func newTestApp(serverURL, input string) (*App, *bytes.Buffer) {
	cfg := &config.Config{ServerEndpointAddr: serverURL, Token: "tok"}
	out := &bytes.Buffer{}
	return &App{
		config: cfg,
		api:    api.NewClient(serverURL, cfg.Token),
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    out,
	}, out
}

// fakeShareServer is a minimal stand-in for the transfer server: it stores
// the last uploaded blob and serves it back once.
type fakeShareServer struct {
	blob     []byte
	verifier []byte
	name     string
	consumed bool
}

func (f *fakeShareServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /{$}", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("encryptedFile")
		require.NoError(t, err)
		f.blob, err = io.ReadAll(file)
		require.NoError(t, err)
		f.verifier, err = hex.DecodeString(r.FormValue("verifier"))
		require.NoError(t, err)
		f.name = r.FormValue("originalName")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ref-1","link":"/download/ref-1"}`))
	})

	mux.HandleFunc("GET /download/ref-1", func(w http.ResponseWriter, r *http.Request) {
		if f.consumed {
			w.WriteHeader(http.StatusGone)
			return
		}
		presented, err := hex.DecodeString(r.Header.Get(common.VerifierHeaderName))
		require.NoError(t, err)
		if !credential.Check(f.verifier, presented) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		f.consumed = true
		w.Header().Set("Content-Disposition", `attachment; filename="`+url.PathEscape(f.name)+`"`)
		_, _ = w.Write(f.blob)
	})

	return mux
}

func TestSendFetchRoundTrip(t *testing.T) {
	fake := &fakeShareServer{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	stubPassphrase(t, "CorrectHorse1")

	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	plaintext := []byte("confidential report body")
	require.NoError(t, os.WriteFile(src, plaintext, 0o600))

	app, out := newTestApp(srv.URL, "")
	require.NoError(t, app.Send(context.Background(), src, ""))
	assert.Contains(t, out.String(), "ref-1")

	// the server never saw the plaintext
	assert.NotEmpty(t, fake.blob)
	assert.NotContains(t, string(fake.blob), string(plaintext))

	dst := filepath.Join(dir, "out.pdf")
	app2, out2 := newTestApp(srv.URL, "")
	require.NoError(t, app2.Fetch(context.Background(), "ref-1", dst))
	assert.Contains(t, out2.String(), dst)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestSend_WeakPassphraseRejectedLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the server")
	}))
	defer srv.Close()

	stubPassphrase(t, "short")

	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("body"), 0o600))

	app, _ := newTestApp(srv.URL, "")
	err := app.Send(context.Background(), src, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestFetch_WrongPassphrase(t *testing.T) {
	fake := &fakeShareServer{verifier: credential.Derive([]byte("RealPass1"))}
	fake.blob = []byte("sealed")
	fake.name = "x.pdf"
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	stubPassphrase(t, "WrongPass1")

	app, _ := newTestApp(srv.URL, "")
	err := app.Fetch(context.Background(), "ref-1", filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong passphrase")
}

func TestFetch_Consumed(t *testing.T) {
	fake := &fakeShareServer{consumed: true}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	stubPassphrase(t, "CorrectHorse1")

	app, _ := newTestApp(srv.URL, "")
	err := app.Fetch(context.Background(), "ref-1", filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already downloaded or has expired")
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _ := newTestApp("http://127.0.0.1:0", "")
	err := app.Run(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	app, out := newTestApp("http://127.0.0.1:0", "")
	require.NoError(t, app.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "Usage:")
}

func TestGetSimpleText(t *testing.T) {
	app, out := newTestApp("http://127.0.0.1:0", "Alice\n")
	got, err := app.getSimpleText("Your name:", out)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got)
}
