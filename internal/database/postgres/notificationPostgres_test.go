package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

func TestNotificationMarkReadAppendsReceipt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs("n-1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRead(context.Background(), "n-1", "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadAlreadyReadIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)

	// The containment guard filters the row out, then the existence
	// probe distinguishes "already read" from "missing".
	mock.ExpectExec(`UPDATE notifications`).
		WithArgs("n-1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("n-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, repo.MarkRead(context.Background(), "n-1", "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs("ghost", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = repo.MarkRead(context.Background(), "ghost", "u1")
	assert.ErrorIs(t, err, entity.ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationClaimForDispatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)

	mock.ExpectExec(`(?s)UPDATE notifications SET status = 'sending'.*WHERE id = \$1 AND status = 'pending'`).
		WithArgs("n-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimForDispatch(context.Background(), "n-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationClaimForDispatchLosesRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)

	// Another dispatcher (or a cancel) already moved the row past
	// pending; the conditional update touches nothing.
	mock.ExpectExec(`UPDATE notifications SET status = 'sending'`).
		WithArgs("n-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimForDispatch(context.Background(), "n-1")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationHistoryFiltersApplyToDispatchedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)

	// The base clause must be grouped so appended filters bind to it;
	// without the parentheses every non-scheduled row matches.
	base := `WHERE \(scheduled_for IS NULL OR status <> 'pending'\) AND type = \$1`
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications ` + base).
		WithArgs("test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(base).
		WithArgs("test").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	notifications, total, err := repo.History(context.Background(), entity.HistoryFilter{Type: "test"})
	require.NoError(t, err)
	assert.Empty(t, notifications)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationUpdateStatusMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)

	mock.ExpectExec(`UPDATE notifications SET status = \$2`).
		WithArgs("ghost", entity.StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "ghost", entity.StatusCancelled)
	assert.ErrorIs(t, err, entity.ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
