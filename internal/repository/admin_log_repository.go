package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"store-ledger/internal/domain"
	"store-ledger/internal/errors"
)

// adminLogRepository is the append-only audit sink for privileged
// actions. Rows are never updated or deleted.
type adminLogRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAdminLogRepository(db SQLExecutor, logger *slog.Logger) domain.AdminLogRepository {
	return &adminLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *adminLogRepository) Append(entry *domain.AdminLogEntry) error {
	query := `
		INSERT INTO admin_logs (admin_id, action, details, target_user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	var target interface{}
	if entry.TargetUserID != nil {
		target = *entry.TargetUserID
	}

	_, err := r.db.Exec(query, entry.AdminID, entry.Action, entry.Details, target, formatTime(time.Now()))
	if err != nil {
		r.logger.Error("Failed to append admin log", "admin_id", entry.AdminID, "action", entry.Action, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to append admin log").WithDetails(err.Error())
	}
	return nil
}

func (r *adminLogRepository) ListForTarget(userID int64) ([]domain.AdminLogEntry, error) {
	query := `
		SELECT log_id, admin_id, action, COALESCE(details, ''), target_user_id, created_at
		FROM admin_logs
		WHERE target_user_id = ?
		ORDER BY log_id
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("Failed to list admin logs", "target_user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list admin logs").WithDetails(err.Error())
	}
	defer rows.Close()

	var entries []domain.AdminLogEntry
	for rows.Next() {
		var entry domain.AdminLogEntry
		var target sql.NullInt64
		var created string

		if err := rows.Scan(&entry.LogID, &entry.AdminID, &entry.Action, &entry.Details, &target, &created); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan admin log").WithDetails(err.Error())
		}

		if target.Valid {
			id := target.Int64
			entry.TargetUserID = &id
		}
		entry.CreatedAt = parseTime(created)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate admin logs").WithDetails(err.Error())
	}
	return entries, nil
}
