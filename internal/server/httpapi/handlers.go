package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/encryptshare/encryptshare/internal/common"
	"github.com/encryptshare/encryptshare/internal/logging"
	"github.com/encryptshare/encryptshare/internal/server/models"
	"github.com/encryptshare/encryptshare/internal/server/services"
)

// uploadFileField is the multipart field carrying the sealed blob.
const uploadFileField = "encryptedFile"

type handler struct {
	svc    *services.TransferService
	logger logging.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// statusFromError maps service sentinels onto HTTP status codes. Unknown
// errors stay 500 and keep their details out of the response body.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, common.ErrGone):
		return http.StatusGone, "file has expired and is no longer available"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
	}
	writeError(w, status, msg)
}

// upload accepts a multipart form with the sealed blob plus its metadata and
// creates a live transfer. The plaintext and the passphrase never appear in
// the request: the blob is sealed at the client edge and only the one-way
// verifier accompanies it.
func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadFileField)
	if err != nil {
		maxBytesErr := &http.MaxBytesError{}
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	verifier, err := hex.DecodeString(r.FormValue("verifier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed verifier")
		return
	}

	deadlineMinutes := 0
	if v := r.FormValue("expiryMinutes"); v != "" {
		deadlineMinutes, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed expiryMinutes")
			return
		}
	}

	result, err := h.svc.Upload(r.Context(), services.UploadInput{
		OwnerID:         userIDFromContext(r.Context()),
		DisplayName:     r.FormValue("originalName"),
		ReceiverContact: r.FormValue("receiverEmail"),
		SenderName:      r.FormValue("senderName"),
		Verifier:        verifier,
		DeadlineMinutes: deadlineMinutes,
		Body:            file,
		Size:            header.Size,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"msg":  "File uploaded successfully",
		"id":   result.ID,
		"link": result.PublicRef,
	})
}

// download streams the sealed blob back to the receiver. The transfer is
// consumed only after the full body went out; a broken connection leaves it
// live and retryable.
func (h *handler) download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	presented, err := hex.DecodeString(r.Header.Get(common.VerifierHeaderName))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed verifier")
		return
	}

	delivery, err := h.svc.Download(r.Context(), id, presented)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+url.PathEscape(delivery.DisplayName)+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(delivery.Size, 10))

	written, copyErr := io.Copy(w, delivery.Body)
	if copyErr != nil || written != delivery.Size {
		// partial delivery, keep the transfer retryable
		h.logger.Warn(r.Context(), "download aborted mid-stream",
			"transfer_id", id, "written", written)
		_ = delivery.Close()
		return
	}

	if err := delivery.Commit(r.Context()); err != nil {
		h.logger.Error(r.Context(), "consume after delivery failed", "transfer_id", id, "error", err.Error())
	}
}

// fileView is the listing DTO handed back to owners. It carries lifecycle
// facts only, never the verifier or a storage location.
type fileView struct {
	ID         string     `json:"id"`
	Name       string     `json:"originalName"`
	Extension  string     `json:"extension"`
	Size       int64      `json:"size"`
	Link       string     `json:"link"`
	State      string     `json:"state"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

func toFileView(t *models.Transfer) fileView {
	return fileView{
		ID:         t.ID,
		Name:       t.DisplayName,
		Extension:  t.Extension,
		Size:       t.Size,
		Link:       "/download/" + t.ID,
		State:      string(t.State),
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
		FinishedAt: t.TerminalAt,
	}
}

// myFiles returns the owner's transfer history, terminal records included.
func (h *handler) myFiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListByOwner(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	views := make([]fileView, 0, len(records))
	for _, t := range records {
		views = append(views, toFileView(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": views})
}

// send re-fires the notification email for an existing transfer.
func (h *handler) send(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := h.svc.Notify(r.Context(), q.Get("receiverEmail"), q.Get("fileID"), q.Get("senderName"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Email sent successfully"})
}

func (h *handler) ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
