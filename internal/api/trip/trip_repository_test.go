package trip

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func repoWithMock(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgresRepository(pool, serviceLogger()), pool
}

func TestMarkProcessingClaimsPendingRequest(t *testing.T) {
	repo, pool := repoWithMock(t)
	id := uuid.New()

	pool.ExpectExec("UPDATE trip_requests").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkProcessing(context.Background(), id))
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestMarkProcessingRejectsAlreadyClaimed(t *testing.T) {
	repo, pool := repoWithMock(t)
	id := uuid.New()

	// The compare-and-set matched no row: another worker holds the request
	// or it already completed.
	pool.ExpectExec("UPDATE trip_requests").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkProcessing(context.Background(), id)
	assert.True(t, errors.Is(err, types.ErrAlreadyProcessing))
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestMarkCompletedRequiresProcessingState(t *testing.T) {
	repo, pool := repoWithMock(t)
	id := uuid.New()

	pool.ExpectExec("UPDATE trip_requests").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkCompleted(context.Background(), id)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestMarkFailedRecordsReason(t *testing.T) {
	repo, pool := repoWithMock(t)
	id := uuid.New()

	pool.ExpectExec("UPDATE trip_requests").
		WithArgs(id, "model returned malformed output").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkFailed(context.Background(), id, "model returned malformed output"))
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestGetTripRequestNotFound(t *testing.T) {
	repo, pool := repoWithMock(t)
	id := uuid.New()

	pool.ExpectQuery("SELECT .+ FROM trip_requests").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetTripRequest(context.Background(), id)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDeleteTripRequestScopedToOwner(t *testing.T) {
	repo, pool := repoWithMock(t)
	userID := uuid.New()
	id := uuid.New()

	pool.ExpectExec("DELETE FROM trip_requests").
		WithArgs(id, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteTripRequest(context.Background(), userID, id)
	assert.True(t, errors.Is(err, types.ErrNotFound))
	require.NoError(t, pool.ExpectationsWereMet())
}
