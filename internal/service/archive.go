package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flybeeper/survey-backend/internal/config"
	"github.com/flybeeper/survey-backend/internal/models"
	"github.com/flybeeper/survey-backend/internal/repository"
)

// ArchiveWriter асинхронный writer для батчевого сохранения завершенных
// миссий в архив. Записи накапливаются в буфере и флашатся при достижении
// размера батча либо по таймеру.
type ArchiveWriter struct {
	history repository.HistoryRepository
	logger  *logrus.Entry

	batchSize       int
	flushInterval   time.Duration
	retention       time.Duration
	cleanupInterval time.Duration

	recordChan chan repository.ArchivedMission
	buffer     []repository.ArchivedMission

	geohashPrecision int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewArchiveWriter создает и запускает writer архива миссий
func NewArchiveWriter(history repository.HistoryRepository, cfg *config.Config, logger *logrus.Entry) *ArchiveWriter {
	ctx, cancel := context.WithCancel(context.Background())

	aw := &ArchiveWriter{
		history:          history,
		logger:           logger,
		batchSize:        cfg.MySQL.BatchSize,
		flushInterval:    cfg.MySQL.FlushInterval,
		retention:        cfg.MySQL.Retention,
		cleanupInterval:  cfg.MySQL.CleanupInterval,
		recordChan:       make(chan repository.ArchivedMission, cfg.MySQL.BatchSize*10),
		buffer:           make([]repository.ArchivedMission, 0, cfg.MySQL.BatchSize),
		geohashPrecision: cfg.Survey.GeohashPrecision,
		ctx:              ctx,
		cancel:           cancel,
	}

	aw.wg.Add(1)
	go aw.worker()

	if aw.retention > 0 && aw.cleanupInterval > 0 {
		aw.wg.Add(1)
		go aw.cleanupLoop()
	}

	logger.WithFields(logrus.Fields{
		"batch_size":     aw.batchSize,
		"flush_interval": aw.flushInterval,
	}).Info("Started mission archive writer")

	return aw
}

// QueueMission добавляет завершенную миссию в очередь архивации
func (aw *ArchiveWriter) QueueMission(m *models.Mission) error {
	rec := aw.toRecord(m)

	select {
	case aw.recordChan <- rec:
		return nil
	case <-aw.ctx.Done():
		return fmt.Errorf("archive writer is shutting down")
	default:
		return fmt.Errorf("archive queue is full")
	}
}

// toRecord сводит миссию к плоской архивной записи
func (aw *ArchiveWriter) toRecord(m *models.Mission) repository.ArchivedMission {
	duration := 0.0
	if m.StartTime != nil && m.EndTime != nil {
		duration = m.EndTime.Sub(*m.StartTime).Minutes()
	}

	return repository.ArchivedMission{
		MissionID:       m.ID,
		Name:            m.Name,
		DroneID:         m.DroneID,
		Status:          string(m.Status),
		Pattern:         string(m.FlightPath.Pattern),
		Region:          m.SurveyArea.Center.Geohash(aw.geohashPrecision),
		Waypoints:       len(m.FlightPath.Waypoints),
		DurationMinutes: duration,
		StartedAt:       m.StartTime,
		EndedAt:         m.EndTime,
		ArchivedAt:      time.Now(),
	}
}

// worker накапливает записи и флашит их батчами
func (aw *ArchiveWriter) worker() {
	defer aw.wg.Done()

	ticker := time.NewTicker(aw.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-aw.recordChan:
			aw.buffer = append(aw.buffer, rec)
			if len(aw.buffer) >= aw.batchSize {
				aw.flush()
			}

		case <-ticker.C:
			if len(aw.buffer) > 0 {
				aw.flush()
			}

		case <-aw.ctx.Done():
			// Финальный flush при завершении: вычитываем остаток канала
			for {
				select {
				case rec := <-aw.recordChan:
					aw.buffer = append(aw.buffer, rec)
					continue
				default:
				}
				break
			}
			if len(aw.buffer) > 0 {
				aw.flush()
			}
			return
		}
	}
}

// cleanupLoop периодически удаляет из архива записи старше срока хранения
func (aw *ArchiveWriter) cleanupLoop() {
	defer aw.wg.Done()

	ticker := time.NewTicker(aw.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := aw.history.CleanupOldMissions(ctx, aw.retention); err != nil {
				aw.logger.WithField("error", err).Error("Failed to cleanup old archived missions")
			}
			cancel()

		case <-aw.ctx.Done():
			return
		}
	}
}

// flush сохраняет буфер в архив одним батчем
func (aw *ArchiveWriter) flush() {
	batch := make([]repository.ArchivedMission, len(aw.buffer))
	copy(batch, aw.buffer)
	aw.buffer = aw.buffer[:0]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := aw.history.SaveMissionsBatch(ctx, batch); err != nil {
		aw.logger.WithFields(logrus.Fields{
			"batch_size": len(batch),
			"error":      err,
		}).Error("Failed to flush mission archive batch")
		return
	}

	aw.logger.WithField("batch_size", len(batch)).Debug("Flushed mission archive batch")
}

// Stop останавливает writer, дофлашивая накопленные записи
func (aw *ArchiveWriter) Stop() {
	aw.logger.Info("Stopping mission archive writer...")
	aw.cancel()
	aw.wg.Wait()
	aw.logger.Info("Mission archive writer stopped")
}
