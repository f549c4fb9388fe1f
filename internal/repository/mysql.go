package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/metrics"
)

// ArchivedMission плоская запись истории миссий для долговременного хранения
type ArchivedMission struct {
	MissionID       string     `json:"missionId"`
	Name            string     `json:"name"`
	DroneID         string     `json:"droneId"`
	Status          string     `json:"status"`
	Pattern         string     `json:"pattern"`
	Region          string     `json:"region"` // Geohash центра зоны съемки
	Waypoints       int        `json:"waypoints"`
	DurationMinutes float64    `json:"durationMinutes"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	ArchivedAt      time.Time  `json:"archivedAt"`
}

// MySQLRepository репозиторий архива миссий (опциональное долговременное хранение)
type MySQLRepository struct {
	db     *sql.DB
	logger *logrus.Entry
	config *config.MySQLConfig
}

// NewMySQLRepository создает новый MySQL репозиторий
func NewMySQLRepository(cfg *config.MySQLConfig, logger *logrus.Entry) (*MySQLRepository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql DSN is required")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	return &MySQLRepository{
		db:     db,
		logger: logger,
		config: cfg,
	}, nil
}

// Ping проверяет соединение с MySQL
func (r *MySQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close закрывает соединение с MySQL
func (r *MySQLRepository) Close() error {
	return r.db.Close()
}

// SaveMissionsBatch сохраняет пачку записей одним multi-VALUES INSERT.
// Повторная архивация той же миссии перезаписывает запись.
func (r *MySQLRepository) SaveMissionsBatch(ctx context.Context, records []ArchivedMission) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()

	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*11)

	for _, rec := range records {
		placeholders = append(placeholders, "(?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rec.MissionID,
			rec.Name,
			rec.DroneID,
			rec.Status,
			rec.Pattern,
			rec.Region,
			rec.Waypoints,
			rec.DurationMinutes,
			rec.StartedAt,
			rec.EndedAt,
			rec.ArchivedAt,
		)
	}

	query := `
		INSERT INTO mission_history
			(mission_id, name, drone_id, status, pattern, region, waypoints, duration_minutes, started_at, ended_at, archived_at)
		VALUES ` + strings.Join(placeholders, ",") + `
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			duration_minutes = VALUES(duration_minutes),
			ended_at = VALUES(ended_at),
			archived_at = VALUES(archived_at)
	`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		metrics.MySQLWriteErrors.Inc()
		metrics.MySQLBatchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to insert mission history batch: %w", err)
	}

	metrics.MySQLBatchSize.Observe(float64(len(records)))
	metrics.MySQLBatchDuration.Observe(time.Since(start).Seconds())
	metrics.MySQLBatchesTotal.WithLabelValues("success").Inc()

	r.logger.WithFields(logrus.Fields{
		"count":      len(records),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Saved mission history batch")

	return nil
}

// LoadRecentMissions возвращает последние архивные записи
func (r *MySQLRepository) LoadRecentMissions(ctx context.Context, limit int) ([]ArchivedMission, error) {
	query := `
		SELECT mission_id, name, drone_id, status, pattern, region, waypoints, duration_minutes, started_at, ended_at, archived_at
		FROM mission_history
		ORDER BY archived_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mission history: %w", err)
	}
	defer rows.Close()

	var records []ArchivedMission
	for rows.Next() {
		var rec ArchivedMission
		var started, ended sql.NullTime

		if err := rows.Scan(
			&rec.MissionID,
			&rec.Name,
			&rec.DroneID,
			&rec.Status,
			&rec.Pattern,
			&rec.Region,
			&rec.Waypoints,
			&rec.DurationMinutes,
			&started,
			&ended,
			&rec.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mission history row: %w", err)
		}

		if started.Valid {
			t := started.Time
			rec.StartedAt = &t
		}
		if ended.Valid {
			t := ended.Time
			rec.EndedAt = &t
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mission history rows: %w", err)
	}

	return records, nil
}

// CleanupOldMissions удаляет архивные записи старше заданного возраста
func (r *MySQLRepository) CleanupOldMissions(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	res, err := r.db.ExecContext(ctx, `DELETE FROM mission_history WHERE archived_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup mission history: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		r.logger.WithField("count", affected).Info("Cleaned up old mission history records")
	}

	return nil
}
