// Package repository owns all access to persisted loan application records.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/common/metrics"
	"qarzapp/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	userApplicationKeyPrefix = "userApplication_"
	allApplicationsKey       = "allApplications"
)

// UserApplicationKey returns the per-user slot key for userID.
func UserApplicationKey(userID string) string {
	return userApplicationKeyPrefix + userID
}

// ApplicationRepository reads and writes LoanApplication records in the
// key-value store. Each user has one authoritative record under
// userApplication_{userId}; the allApplications list mirrors the latest
// record per user for the admin view.
type ApplicationRepository struct {
	rdb    *redis.Client
	logger logger.Logger
}

func NewApplicationRepository(rdb *redis.Client, log logger.Logger) *ApplicationRepository {
	return &ApplicationRepository{
		rdb:    rdb,
		logger: log.WithFields(map[string]interface{}{"component": "application-repository"}),
	}
}

// GetUserApplication loads the record in the user's slot. Absent records,
// read failures and corrupt payloads all read as nil; failures are logged
// but never surfaced, so callers cannot distinguish "no record" from
// "read failed".
func (r *ApplicationRepository) GetUserApplication(ctx context.Context, userID string) *models.LoanApplication {
	raw, err := r.rdb.Get(ctx, UserApplicationKey(userID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		r.logger.Warn("application read failed, treating as absent", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil
	}

	var app models.LoanApplication
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		r.logger.Warn("stored application is corrupt, treating as absent", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil
	}
	return &app
}

// SaveUserApplication writes app into the user's slot and replaces the
// user's entry in the allApplications list, keyed by userId. Both writes go
// through a single MULTI/EXEC pipeline so the two views cannot diverge on a
// partial failure.
func (r *ApplicationRepository) SaveUserApplication(ctx context.Context, app *models.LoanApplication) error {
	if err := app.Validate(); err != nil {
		return fmt.Errorf("invalid application record: %w", err)
	}

	payload, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}

	all, err := r.readAllApplications(ctx)
	if err != nil {
		metrics.StoreWriteFailures.Inc()
		return apperrors.NewStorageWriteError(err)
	}

	updated := make([]models.LoanApplication, 0, len(all)+1)
	for _, existing := range all {
		if existing.UserID != app.UserID {
			updated = append(updated, existing)
		}
	}
	updated = append(updated, *app)

	listPayload, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("marshal application list: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, UserApplicationKey(app.UserID), payload, 0)
		pipe.Set(ctx, allApplicationsKey, listPayload, 0)
		return nil
	})
	if err != nil {
		metrics.StoreWriteFailures.Inc()
		return apperrors.NewStorageWriteError(err)
	}

	r.logger.Info("application saved", map[string]interface{}{
		"applicationId": app.ID,
		"userId":        app.UserID,
		"status":        app.Status,
	})
	return nil
}

// ListApplications returns the latest record per user, in submission order.
// Like all reads, failures read as empty rather than erroring.
func (r *ApplicationRepository) ListApplications(ctx context.Context) []models.LoanApplication {
	all, err := r.readAllApplications(ctx)
	if err != nil {
		r.logger.Warn("application list read failed, treating as empty", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return all
}

func (r *ApplicationRepository) readAllApplications(ctx context.Context) ([]models.LoanApplication, error) {
	raw, err := r.rdb.Get(ctx, allApplicationsKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var all []models.LoanApplication
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		// Rebuild from the incoming write rather than wedging submissions
		// behind a corrupt list.
		r.logger.Error("application list is corrupt, rebuilding", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}
	return all, nil
}
