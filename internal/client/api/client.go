// Package api implements the HTTP client for the transfer server. It only
// moves sealed bytes and the one-way verifier; sealing and opening happen in
// the caller.
package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/encryptshare/encryptshare/internal/common"
)

// Client talks to the transfer server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+c.token)
	}
	return req, nil
}

// errorFromStatus maps response codes back onto the shared sentinels so the
// CLI can explain outcomes without parsing bodies.
func errorFromStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return common.ErrValidation
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrAccessDenied
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusGone:
		return common.ErrGone
	default:
		return fmt.Errorf("server returned %s", resp.Status)
	}
}

// UploadRequest describes a sealed blob to hand to the server.
type UploadRequest struct {
	FileName      string
	Receiver      string
	SenderName    string
	ExpiryMinutes int
	Verifier      []byte
	Blob          io.Reader
}

// UploadResponse is the server's acknowledgement.
type UploadResponse struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// Upload posts the sealed blob as a multipart form.
func (c *Client) Upload(ctx context.Context, in UploadRequest) (*UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"originalName":  in.FileName,
		"receiverEmail": in.Receiver,
		"senderName":    in.SenderName,
		"verifier":      hex.EncodeToString(in.Verifier),
	}
	if in.ExpiryMinutes > 0 {
		fields["expiryMinutes"] = strconv.Itoa(in.ExpiryMinutes)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	fw, err := mw.CreateFormFile("encryptedFile", in.FileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, in.Blob); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromStatus(resp)
	}

	out := &UploadResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadResult carries the sealed blob stream plus the filename hint.
type DownloadResult struct {
	Name string
	Body io.ReadCloser
}

// Download fetches the sealed blob for a reference, presenting the verifier.
// The caller must close Body; reading it to the end is what consumes the
// transfer on the server.
func (c *Client) Download(ctx context.Context, id string, verifier []byte) (*DownloadResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/download/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(common.VerifierHeaderName, hex.EncodeToString(verifier))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errorFromStatus(resp)
	}

	name := fileNameFromDisposition(resp.Header.Get("Content-Disposition"))
	return &DownloadResult{Name: name, Body: resp.Body}, nil
}

func fileNameFromDisposition(header string) string {
	const marker = `filename="`
	i := strings.Index(header, marker)
	if i < 0 {
		return ""
	}
	rest := header[i+len(marker):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return ""
	}
	name, err := url.PathUnescape(rest[:j])
	if err != nil {
		return rest[:j]
	}
	return name
}

// FileInfo is one row of the owner's transfer history.
type FileInfo struct {
	ID        string `json:"id"`
	Name      string `json:"originalName"`
	Size      int64  `json:"size"`
	Link      string `json:"link"`
	State     string `json:"state"`
	CreatedAt string `json:"createdAt"`
}

// ListFiles returns the owner's transfer history, newest first.
func (c *Client) ListFiles(ctx context.Context) ([]FileInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/my-files", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromStatus(resp)
	}

	var out struct {
		Files []FileInfo `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Send asks the server to re-fire the notification email for a transfer.
func (c *Client) Send(ctx context.Context, receiverEmail, fileID, senderName string) error {
	q := url.Values{}
	q.Set("receiverEmail", receiverEmail)
	q.Set("fileID", fileID)
	q.Set("senderName", senderName)

	req, err := c.newRequest(ctx, http.MethodPost, "/send?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errorFromStatus(resp)
	}
	return nil
}

// Ping probes server reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errorFromStatus(resp)
	}
	return nil
}
