package orders

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

func TestCreate_AssignsNumberFromSequence(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO purchase_orders`).
		WithArgs("po-1", "alice", "bob", []byte("s"), []byte("d"), models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"number", "sent_at"}).AddRow(int64(42), now))

	order := &models.PurchaseOrder{
		ID:              "po-1",
		SenderID:        "alice",
		SupervisorID:    "bob",
		SummaryEnvelope: []byte("s"),
		DetailEnvelope:  []byte("d"),
		Status:          models.StatusPending,
	}

	got, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Number)
	assert.Equal(t, now, got.SentAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForReview_UsesRowLock(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "number", "sender_id", "supervisor_id", "purchaser_id",
		"summary_envelope", "detail_envelope", "status", "sent_at", "reviewed_at",
	}).AddRow("po-1", int64(1), "alice", "bob", nil, []byte("s"), []byte("d"),
		models.StatusPending, time.Now(), nil)

	mock.ExpectQuery(`SELECT .* FROM purchase_orders WHERE id = \$1 FOR UPDATE`).
		WithArgs("po-1").
		WillReturnRows(rows)

	got, err := repo.GetForReview(context.Background(), "po-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.PurchaserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM purchase_orders WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateReview_WritesWholeOutcomeInOneStatement(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	purchaser := "carol"
	reviewed := time.Now()
	order := &models.PurchaseOrder{
		ID:              "po-1",
		SummaryEnvelope: []byte("s2"),
		DetailEnvelope:  []byte("d2"),
		Status:          models.StatusApproved,
		PurchaserID:     &purchaser,
		ReviewedAt:      &reviewed,
	}

	mock.ExpectExec(`UPDATE purchase_orders`).
		WithArgs("po-1", []byte("s2"), []byte("d2"), models.StatusApproved, "carol", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateReview(context.Background(), order))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReview_MissingRow(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectExec(`UPDATE purchase_orders`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	order := &models.PurchaseOrder{ID: "nope", Status: models.StatusRejected}
	err := repo.UpdateReview(context.Background(), order)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
