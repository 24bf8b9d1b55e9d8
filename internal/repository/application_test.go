package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func newTestRepo(t *testing.T) (*ApplicationRepository, *redis.Client) {
	rdb := setupRedis(t)
	return NewApplicationRepository(rdb, logger.NewTestLogger(t)), rdb
}

func testApplication(userID string) *models.LoanApplication {
	return &models.LoanApplication{
		ID:            "11111111-2222-3333-4444-555555555555",
		UserID:        userID,
		FullName:      "Ahmed Khan",
		NationalID:    "35202-1234567-1",
		MonthlyIncome: 30000,
		Status:        models.StatusUnderReview,
		SubmittedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestGetUserApplication_Absent(t *testing.T) {
	repo, _ := newTestRepo(t)

	app := repo.GetUserApplication(context.Background(), "user-none")
	assert.Nil(t, app)
}

func TestSaveAndGetUserApplication(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	app := testApplication("user-1")
	require.NoError(t, repo.SaveUserApplication(ctx, app))

	got := repo.GetUserApplication(ctx, "user-1")
	require.NotNil(t, got)
	assert.Equal(t, app.ID, got.ID)
	assert.Equal(t, app.FullName, got.FullName)
	assert.Equal(t, app.Status, got.Status)
	assert.True(t, app.SubmittedAt.Equal(got.SubmittedAt), "submittedAt must survive the storage roundtrip")
	assert.Nil(t, got.Offer)
	assert.Nil(t, got.Disbursement)
}

func TestSaveUserApplication_RoundTripsOfferFields(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	app := testApplication("user-1")
	app.MonthlyIncome = 60000
	app.Status = models.StatusApproved
	app.Offer = &models.LoanOffer{
		LoanAmount:    48000,
		InterestRate:  12.5,
		RepaymentDate: app.SubmittedAt.Add(365 * 24 * time.Hour),
	}
	require.NoError(t, repo.SaveUserApplication(ctx, app))

	got := repo.GetUserApplication(ctx, "user-1")
	require.NotNil(t, got)
	require.NotNil(t, got.Offer)
	assert.Equal(t, 48000.0, got.Offer.LoanAmount)
	assert.Equal(t, 12.5, got.Offer.InterestRate)
	assert.True(t, app.Offer.RepaymentDate.Equal(got.Offer.RepaymentDate))
}

func TestSaveUserApplication_ReplacesListEntry(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first := testApplication("user-1")
	require.NoError(t, repo.SaveUserApplication(ctx, first))

	second := testApplication("user-1")
	second.ID = "99999999-8888-7777-6666-555555555555"
	second.Status = models.StatusRejected
	require.NoError(t, repo.SaveUserApplication(ctx, second))

	all := repo.ListApplications(ctx)
	require.Len(t, all, 1, "repeated submissions must replace, not append")
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, models.StatusRejected, all[0].Status)
}

func TestSaveUserApplication_KeepsOtherUsers(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveUserApplication(ctx, testApplication("user-1")))

	other := testApplication("user-2")
	other.ID = "99999999-8888-7777-6666-555555555555"
	require.NoError(t, repo.SaveUserApplication(ctx, other))

	all := repo.ListApplications(ctx)
	assert.Len(t, all, 2)
}

func TestSaveUserApplication_SlotAndListStayConsistent(t *testing.T) {
	repo, rdb := newTestRepo(t)
	ctx := context.Background()

	app := testApplication("user-1")
	require.NoError(t, repo.SaveUserApplication(ctx, app))

	raw, err := rdb.Get(ctx, UserApplicationKey("user-1")).Result()
	require.NoError(t, err)

	var slot models.LoanApplication
	require.NoError(t, json.Unmarshal([]byte(raw), &slot))

	all := repo.ListApplications(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, slot.ID, all[0].ID)
}

func TestSaveUserApplication_RejectsMalformedRecord(t *testing.T) {
	repo, _ := newTestRepo(t)

	app := testApplication("user-1")
	app.Status = models.StatusApproved // approved without an offer

	err := repo.SaveUserApplication(context.Background(), app)
	assert.Error(t, err)
}

func TestGetUserApplication_CorruptPayload(t *testing.T) {
	repo, rdb := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, UserApplicationKey("user-1"), "{not json", 0).Err())

	app := repo.GetUserApplication(ctx, "user-1")
	assert.Nil(t, app, "corrupt payloads read as absent")
}

func TestGetUserApplication_ReadFailureReadsAsAbsent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := NewApplicationRepository(rdb, logger.NewNoOpLogger())

	mock.ExpectGet(UserApplicationKey("user-1")).SetErr(errors.New("connection reset"))

	app := repo.GetUserApplication(context.Background(), "user-1")
	assert.Nil(t, app)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUserApplication_WriteFailure(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := NewApplicationRepository(rdb, logger.NewNoOpLogger())

	mock.ExpectGet(allApplicationsKey).SetErr(errors.New("connection reset"))

	err := repo.SaveUserApplication(context.Background(), testApplication("user-1"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageWriteFailed))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestListApplications_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)

	all := repo.ListApplications(context.Background())
	assert.Empty(t, all)
}

func TestSaveUserApplication_RebuildsCorruptList(t *testing.T) {
	repo, rdb := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, allApplicationsKey, "{not json", 0).Err())

	app := testApplication("user-1")
	require.NoError(t, repo.SaveUserApplication(ctx, app))

	all := repo.ListApplications(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, app.ID, all[0].ID)
}
