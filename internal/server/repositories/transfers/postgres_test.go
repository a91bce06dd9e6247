package transfers

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/encryptshare/encryptshare/internal/common"
	"github.com/encryptshare/encryptshare/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func transferColumns() []string {
	return []string{"id", "owner_id", "storage_key", "display_name", "extension",
		"verifier", "size", "created_at", "expires_at", "state", "terminal_at"}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	expires := created.Add(time.Hour)

	mock.ExpectExec(`INSERT INTO transfers .*VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10\);`).
		WithArgs("t1", "u1", "objects/t1", "report.pdf", ".pdf", []byte("ver"), int64(42),
			created, &expires, "live").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Transfer{
		ID:          "t1",
		OwnerID:     "u1",
		StorageKey:  "objects/t1",
		DisplayName: "report.pdf",
		Extension:   ".pdf",
		Verifier:    []byte("ver"),
		Size:        42,
		CreatedAt:   created,
		ExpiresAt:   &expires,
		State:       models.StateLive,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_NilExpiry(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()

	mock.ExpectExec(`INSERT INTO transfers`).
		WithArgs("t1", "u1", "objects/t1", "report.pdf", ".pdf", []byte("ver"), int64(42),
			created, (*time.Time)(nil), "live").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Transfer{
		ID:          "t1",
		OwnerID:     "u1",
		StorageKey:  "objects/t1",
		DisplayName: "report.pdf",
		Extension:   ".pdf",
		Verifier:    []byte("ver"),
		Size:        42,
		CreatedAt:   created,
		State:       models.StateLive,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_DBExecError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO transfers`).
		WillReturnError(errors.New("db is down"))

	err := repo.Create(context.Background(), &models.Transfer{ID: "t1", State: models.StateLive})
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().Add(-time.Minute)
	terminal := time.Now()

	rows := sqlmock.NewRows(transferColumns()).
		AddRow("t1", "u1", "objects/t1", "report.pdf", ".pdf",
			[]byte("ver"), int64(42), created, nil, "consumed", terminal)

	mock.ExpectQuery(`SELECT .* FROM transfers WHERE id=\$1`).
		WithArgs("t1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != models.StateConsumed {
		t.Errorf("want state consumed, got %s", got.State)
	}
	if got.ExpiresAt != nil {
		t.Errorf("want nil ExpiresAt, got %v", got.ExpiresAt)
	}
	if got.TerminalAt == nil || !got.TerminalAt.Equal(terminal) {
		t.Errorf("want TerminalAt %v, got %v", terminal, got.TerminalAt)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM transfers WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListByOwner_NewestFirstQuery(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(transferColumns()).
		AddRow("t2", "u1", "objects/t2", "b.txt", ".txt", []byte("v"), int64(1), now, nil, "live", nil).
		AddRow("t1", "u1", "objects/t1", "a.txt", ".txt", []byte("v"), int64(1), now.Add(-time.Hour), nil, "expired", now)

	mock.ExpectQuery(`SELECT .* FROM transfers WHERE owner_id=\$1 ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t2" || got[1].ID != "t1" {
		t.Fatalf("unexpected result order: %+v", got)
	}
}

func TestSelectOverdue(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	expired := now.Add(-time.Minute)
	rows := sqlmock.NewRows(transferColumns()).
		AddRow("t1", "u1", "objects/t1", "a.txt", ".txt", []byte("v"), int64(1), now.Add(-time.Hour), expired, "live", nil)

	mock.ExpectQuery(`SELECT .* FROM transfers WHERE state='live' AND expires_at IS NOT NULL AND expires_at<=\$1`).
		WithArgs(now).
		WillReturnRows(rows)

	got, err := repo.SelectOverdue(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFinish_WinnerRowsAffected1(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`UPDATE transfers SET state=\$1, terminal_at=\$2 WHERE id=\$3 AND state='live'`).
		WithArgs("consumed", at, "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), "t1", models.StateConsumed, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFinish_LoserRowsAffected0(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`UPDATE transfers SET state=\$1, terminal_at=\$2 WHERE id=\$3 AND state='live'`).
		WithArgs("expired", at, "t1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finish(context.Background(), "t1", models.StateExpired, at)
	if !errors.Is(err, common.ErrAlreadyFinished) {
		t.Fatalf("want ErrAlreadyFinished, got %v", err)
	}
}

func TestFinish_RejectsNonTerminalState(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	if err := repo.Finish(context.Background(), "t1", models.StateLive, time.Now()); err == nil {
		t.Fatalf("expected error for non-terminal state")
	}
}
