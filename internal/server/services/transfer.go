// Package services contains server-side business logic. TransferService is
// the transfer gateway: it orchestrates upload (store ciphertext + create
// record), download (verify credential, check lifecycle, stream, mark
// consumed) and listing, and hosts the shared expiry path used by the
// background sweeper.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/encryptshare/encryptshare/internal/common"
	"github.com/encryptshare/encryptshare/internal/credential"
	"github.com/encryptshare/encryptshare/internal/logging"
	"github.com/encryptshare/encryptshare/internal/server/models"
	"github.com/encryptshare/encryptshare/internal/server/notify"
	"github.com/encryptshare/encryptshare/internal/server/repositories/repomanager"
	"github.com/encryptshare/encryptshare/internal/server/storage"
)

var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "encshare_downloads_total",
		Help: "Download attempts by outcome.",
	}, []string{"outcome"})

	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "encshare_uploads_total",
		Help: "Successfully stored uploads.",
	})

	expiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "encshare_expired_total",
		Help: "Transfers transitioned to expired.",
	})
)

const (
	terminalCacheSize = 4096
	terminalCacheTTL  = time.Hour

	notifyTimeout = 15 * time.Second
)

// allowedExtensions is the allow-list of cosmetic file extensions. The
// ciphertext itself is opaque; the list only bounds what receivers are
// told they are getting.
var allowedExtensions = map[string]struct{}{
	".pdf": {}, ".docx": {}, ".doc": {}, ".xls": {}, ".xlsx": {}, ".csv": {},
	".txt": {}, ".rtf": {}, ".html": {}, ".zip": {}, ".mp3": {}, ".m4a": {},
	".wma": {}, ".mpg": {}, ".flv": {}, ".avi": {}, ".jpg": {}, ".jpeg": {},
	".png": {}, ".gif": {}, ".ppt": {}, ".pptx": {}, ".wav": {}, ".mp4": {},
	".m4v": {}, ".wmv": {}, ".epub": {},
}

// Options bounds the gateway's inputs.
type Options struct {
	// MaxUploadBytes is the ciphertext size ceiling. Oversized uploads are
	// rejected before any storage work.
	MaxUploadBytes int64
	// MaxDeadlineMinutes bounds the optional self-destruct deadline.
	MaxDeadlineMinutes int
}

// TransferService implements the transfer gateway.
type TransferService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	store    storage.ObjectStore
	notifier notify.Notifier
	logger   logging.Logger
	opts     Options

	locks *idLock
	// terminal caches ids already known to be consumed/expired so that
	// repeat hits on dead references skip the database.
	terminal *expirable.LRU[string, models.TransferState]

	now   func() time.Time
	newID func() string
}

// NewTransferService wires the gateway with its collaborators.
func NewTransferService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStore,
	notifier notify.Notifier, logger logging.Logger, opts Options) *TransferService {
	return &TransferService{
		db:       db,
		repos:    repos,
		store:    store,
		notifier: notifier,
		logger:   logger.With("module", "transfer_service"),
		opts:     opts,
		locks:    newIDLock(),
		terminal: expirable.NewLRU[string, models.TransferState](terminalCacheSize, nil, terminalCacheTTL),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// UploadInput is everything the gateway needs to accept a sealed blob.
type UploadInput struct {
	OwnerID     string
	DisplayName string
	// ReceiverContact, when set, triggers a best-effort notification.
	ReceiverContact string
	SenderName      string
	// Verifier is the one-way passphrase digest computed at the client edge.
	Verifier []byte
	// DeadlineMinutes, when positive, sets the self-destruct deadline.
	DeadlineMinutes int
	Body            io.Reader
	Size            int64
}

// UploadResult carries the public reference handed back to the sender.
type UploadResult struct {
	ID        string
	PublicRef string
	ExpiresAt *time.Time
}

// storageKeyFor spreads objects by date, keeping the bucket listable.
func storageKeyFor(now time.Time, id string) string {
	return fmt.Sprintf("transfers/%d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), id)
}

// Upload validates the input, stores the ciphertext object and creates the
// live record. Either both persist or neither: a record-creation failure
// removes the freshly written object.
func (s *TransferService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if err := s.validateUpload(&in); err != nil {
		return nil, err
	}

	now := s.now()
	id := s.newID()
	key := storageKeyFor(now, id)

	var expiresAt *time.Time
	if in.DeadlineMinutes > 0 {
		t := now.Add(time.Duration(in.DeadlineMinutes) * time.Minute)
		expiresAt = &t
	}

	if err := s.store.Put(ctx, key, in.Body, in.Size); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	record := &models.Transfer{
		ID:          id,
		OwnerID:     in.OwnerID,
		StorageKey:  key,
		DisplayName: in.DisplayName,
		Extension:   strings.ToLower(path.Ext(in.DisplayName)),
		Verifier:    in.Verifier,
		Size:        in.Size,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		State:       models.StateLive,
	}

	if err := s.repos.Transfers(s.db).Create(ctx, record); err != nil {
		// no orphan objects: the blob is unreachable without a record
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error(ctx, "orphan object cleanup failed", "key", key, "error", delErr.Error())
		}
		return nil, fmt.Errorf("error creating transfer: %w", err)
	}

	uploadsTotal.Inc()

	if in.ReceiverContact != "" {
		s.notifyReceiver(ctx, in.ReceiverContact, id, in.SenderName)
	}

	return &UploadResult{ID: id, PublicRef: "/download/" + id, ExpiresAt: expiresAt}, nil
}

func (s *TransferService) validateUpload(in *UploadInput) error {
	if in.OwnerID == "" {
		return fmt.Errorf("%w: missing owner", common.ErrValidation)
	}
	if in.DisplayName == "" {
		return fmt.Errorf("%w: missing file name", common.ErrValidation)
	}
	if err := credential.ValidateVerifier(in.Verifier); err != nil {
		return err
	}
	if in.Size <= 0 {
		return fmt.Errorf("%w: empty upload", common.ErrValidation)
	}
	if in.Size > s.opts.MaxUploadBytes {
		return fmt.Errorf("%w: upload exceeds %d bytes", common.ErrValidation, s.opts.MaxUploadBytes)
	}
	if in.DeadlineMinutes < 0 || in.DeadlineMinutes > s.opts.MaxDeadlineMinutes {
		return fmt.Errorf("%w: deadline must be between 1 and %d minutes", common.ErrValidation, s.opts.MaxDeadlineMinutes)
	}
	ext := strings.ToLower(path.Ext(in.DisplayName))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: file type %q not allowed", common.ErrValidation, ext)
	}
	return nil
}

// notifyReceiver fires the notification hook without blocking the upload.
// Failures are logged and swallowed.
func (s *TransferService) notifyReceiver(ctx context.Context, contact, id, senderName string) {
	bg := context.WithoutCancel(ctx)
	go func() {
		nctx, cancel := context.WithTimeout(bg, notifyTimeout)
		defer cancel()
		if err := s.notifier.Send(nctx, contact, id, senderName); err != nil {
			s.logger.Warn(nctx, "notification failed", "transfer_id", id, "error", err.Error())
		}
	}()
}

// Notify re-fires the notification for an existing transfer (the /send
// operation). Unlike the upload-time hook this one is synchronous, so the
// caller learns whether delivery was accepted.
func (s *TransferService) Notify(ctx context.Context, contact, id, senderName string) error {
	if contact == "" || id == "" {
		return fmt.Errorf("%w: missing contact or transfer id", common.ErrValidation)
	}
	if _, err := s.repos.Transfers(s.db).GetByID(ctx, id); err != nil {
		return err
	}
	return s.notifier.Send(ctx, contact, id, senderName)
}

// Delivery is an in-flight download. The caller streams Body to the
// receiver and then either Commits (full delivery: the record becomes
// consumed and the object is erased) or just Closes (abort: the record
// stays live and retryable). The per-id lock is held until one of the two
// happens, so the sweeper cannot interleave with an active download.
type Delivery struct {
	DisplayName string
	Extension   string
	Size        int64
	Body        io.ReadCloser

	svc     *TransferService
	record  *models.Transfer
	release func()
	done    bool
}

// Commit finalizes a fully delivered download: the record transitions
// live→consumed and the stored object is deleted. Idempotent against
// concurrent finishers through the conditional update.
func (d *Delivery) Commit(ctx context.Context) error {
	if d.done {
		return nil
	}
	d.done = true
	defer d.release()
	_ = d.Body.Close()

	// The bytes are already delivered. A receiver that drops the connection
	// right after the last byte cancels the request context; the consume
	// transition must still land or the transfer stays retrievable.
	ctx = context.WithoutCancel(ctx)

	if err := d.svc.finish(ctx, d.record, models.StateConsumed); err != nil {
		if errors.Is(err, common.ErrAlreadyFinished) {
			// another process won the transition; nothing left to erase here
			downloadsTotal.WithLabelValues("lost_race").Inc()
			return nil
		}
		return err
	}
	downloadsTotal.WithLabelValues("consumed").Inc()
	return nil
}

// Close aborts the download without consuming the transfer.
func (d *Delivery) Close() error {
	if d.done {
		return nil
	}
	d.done = true
	defer d.release()
	downloadsTotal.WithLabelValues("aborted").Inc()
	return d.Body.Close()
}

// Download runs the fixed evaluation order: lookup, credential, lifecycle,
// stream. A mismatching credential on a live record is AccessDenied; any
// terminal or overdue record is Gone no matter what credential was
// presented, so an attacker cannot use dead references as a password
// oracle.
func (s *TransferService) Download(ctx context.Context, id string, presented []byte) (*Delivery, error) {
	if _, dead := s.terminal.Get(id); dead {
		downloadsTotal.WithLabelValues("gone").Inc()
		return nil, common.ErrGone
	}

	release := s.locks.acquire(id)
	ok := false
	defer func() {
		if !ok {
			release()
		}
	}()

	record, err := s.repos.Transfers(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			downloadsTotal.WithLabelValues("not_found").Inc()
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error getting transfer: %w", err)
	}

	// evaluated before lifecycle is acted upon, reported after
	credentialOK := credential.Check(record.Verifier, presented)

	if record.State.Terminal() || record.Overdue(s.now()) {
		if record.State == models.StateLive {
			if err := s.finish(ctx, record, models.StateExpired); err != nil && !errors.Is(err, common.ErrAlreadyFinished) {
				return nil, err
			}
		} else {
			s.terminal.Add(record.ID, record.State)
		}
		downloadsTotal.WithLabelValues("gone").Inc()
		return nil, common.ErrGone
	}

	if !credentialOK {
		downloadsTotal.WithLabelValues("denied").Inc()
		return nil, common.ErrAccessDenied
	}

	body, err := s.store.Get(ctx, record.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	ok = true
	return &Delivery{
		DisplayName: record.DisplayName,
		Extension:   record.Extension,
		Size:        record.Size,
		Body:        body,
		svc:         s,
		record:      record,
		release:     release,
	}, nil
}

// ListByOwner returns the owner's transfer history, newest first, terminal
// records included. Pure read.
func (s *TransferService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Transfer, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing owner", common.ErrValidation)
	}
	return s.repos.Transfers(s.db).ListByOwner(ctx, ownerID)
}

// ExpireOverdue is the sweep body: every live record past its deadline is
// transitioned to expired and its object erased. Shared with the lazy
// expiry inside Download through finish, so both funnels agree on a single
// winner per record. Returns the number of records this call expired.
func (s *TransferService) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repos.Transfers(s.db).SelectOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error selecting overdue transfers: %w", err)
	}

	expired := 0
	for _, record := range overdue {
		release := s.locks.acquire(record.ID)
		err := s.finish(ctx, record, models.StateExpired)
		release()

		switch {
		case err == nil:
			expired++
		case errors.Is(err, common.ErrAlreadyFinished):
			// a concurrent download consumed it first
		default:
			s.logger.Error(ctx, "expiry failed", "transfer_id", record.ID, "error", err.Error())
		}
	}
	return expired, nil
}

// finish commits the terminal transition and then erases the object.
// Callers must hold the per-id lock. The conditional update decides the
// single winner; only the winner deletes, so the object is erased at most
// once. An object-delete failure is logged but the transition stands: the
// record is already non-live and will never be served again.
func (s *TransferService) finish(ctx context.Context, record *models.Transfer, state models.TransferState) error {
	if err := s.repos.Transfers(s.db).Finish(ctx, record.ID, state, s.now()); err != nil {
		if errors.Is(err, common.ErrAlreadyFinished) {
			s.terminal.Add(record.ID, state)
		}
		return err
	}

	s.terminal.Add(record.ID, state)
	if state == models.StateExpired {
		expiredTotal.Inc()
	}

	if err := s.store.Delete(ctx, record.StorageKey); err != nil {
		s.logger.Error(ctx, "object delete failed, will need out-of-band cleanup",
			"transfer_id", record.ID, "key", record.StorageKey, "error", err.Error())
	}
	return nil
}
