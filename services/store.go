package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"transit-delay-api/database"
	"transit-delay-api/models"
)

const defaultStoreTimeout = 5 * time.Second

// PredictionStore persists prediction records. Each mutating call runs in
// its own transaction and every call is bounded by the store timeout.
type PredictionStore struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

func NewPredictionStore(db *gorm.DB, timeout time.Duration) *PredictionStore {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &PredictionStore{db: db, timeout: timeout, now: time.Now}
}

func (s *PredictionStore) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// Save inserts rec, assigning its ID and Timestamp.
func (s *PredictionStore) Save(ctx context.Context, rec *models.PredictionRecord) (uint, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	rec.ID = 0
	rec.Timestamp = s.now().UTC().Truncate(time.Microsecond)
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save prediction: %w", err)
	}
	return rec.ID, nil
}

func (s *PredictionStore) Get(ctx context.Context, id uint) (*models.PredictionRecord, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec models.PredictionRecord
	if err := db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prediction %d: %w", id, err)
	}
	return &rec, nil
}

// List returns one page of records, newest first, and the number of records
// matching the filter regardless of paging.
func (s *PredictionStore) List(ctx context.Context, limit, offset int, f models.HistoryFilter) ([]models.PredictionRecord, int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var total int64
	if err := applyFilter(db.Model(&models.PredictionRecord{}), f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	records := make([]models.PredictionRecord, 0)
	err := applyFilter(db, f).
		Order("timestamp DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list predictions: %w", err)
	}
	return records, total, nil
}

func applyFilter(db *gorm.DB, f models.HistoryFilter) *gorm.DB {
	if f.Model != "" {
		db = db.Where("model_used = ?", f.Model)
	}
	if f.TransportType != "" {
		db = db.Where("transport_type = ?", f.TransportType)
	}
	if f.Day != "" {
		db = db.Where("day = ?", f.Day)
	}
	return db
}

// RecordActualOutcome overwrites the ground-truth fields of an existing
// record. Repeat calls simply overwrite.
func (s *PredictionStore) RecordActualOutcome(ctx context.Context, id uint, delay float64, risk string) (*models.PredictionRecord, error) {
	if math.IsNaN(delay) || math.IsInf(delay, 0) {
		return nil, ErrInvalidOutcome
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec models.PredictionRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return err
		}
		return tx.Model(&rec).Updates(map[string]any{
			"actual_delay": delay,
			"actual_risk":  risk,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("record outcome for %d: %w", id, err)
	}
	rec.ActualDelay = &delay
	rec.ActualRisk = &risk
	return &rec, nil
}

// StatisticsByModel aggregates every model group, or only modelName's group
// when it is non-empty.
func (s *PredictionStore) StatisticsByModel(ctx context.Context, modelName string) (map[string]models.ModelStatistics, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	q := db.Model(&models.PredictionRecord{}).Select(
		"model_used, COUNT(*) AS total_predictions, " +
			"AVG(predicted_delay) AS avg_predicted_delay, " +
			"MIN(predicted_delay) AS min_predicted_delay, " +
			"MAX(predicted_delay) AS max_predicted_delay, " +
			"AVG(predicted_probability) AS avg_confidence, " +
			"COUNT(actual_delay) AS verified_predictions")
	if modelName != "" {
		q = q.Where("model_used = ?", modelName)
	}

	var rows []models.ModelStatistics
	if err := q.Group("model_used").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("model statistics: %w", err)
	}

	out := make(map[string]models.ModelStatistics, len(rows))
	for _, r := range rows {
		r.AvgPredictedDelay = round(r.AvgPredictedDelay, 2)
		r.MinPredictedDelay = round(r.MinPredictedDelay, 2)
		r.MaxPredictedDelay = round(r.MaxPredictedDelay, 2)
		r.AvgConfidence = round(r.AvgConfidence, 4)
		out[r.ModelUsed] = r
	}
	return out, nil
}

type usageRow struct {
	ModelUsed  string
	UsageCount int64
	AvgDelay   float64
}

type riskRow struct {
	ModelUsed     string
	PredictedRisk string
	Count         int64
	AvgConfidence float64
}

// Comparison runs the usage and risk aggregations in one transaction so both
// halves see the same rows.
func (s *PredictionStore) Comparison(ctx context.Context) (*models.ModelComparison, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var usage []usageRow
	var risks []riskRow
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.PredictionRecord{}).
			Select("model_used, COUNT(*) AS usage_count, AVG(predicted_delay) AS avg_delay").
			Group("model_used").Scan(&usage).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.PredictionRecord{}).
			Select("model_used, predicted_risk, COUNT(*) AS count, AVG(predicted_probability) AS avg_confidence").
			Group("model_used, predicted_risk").Scan(&risks).Error
	})
	if err != nil {
		return nil, fmt.Errorf("model comparison: %w", err)
	}

	cmp := &models.ModelComparison{
		Statistics:   make(map[string]models.ModelUsage, len(usage)),
		RiskAnalysis: make(map[string]map[string]models.RiskBreakdown),
		Timestamp:    s.now().UTC(),
	}
	for _, u := range usage {
		cmp.Statistics[u.ModelUsed] = models.ModelUsage{UsageCount: u.UsageCount, AvgDelay: round(u.AvgDelay, 2)}
	}
	for _, r := range risks {
		if cmp.RiskAnalysis[r.ModelUsed] == nil {
			cmp.RiskAnalysis[r.ModelUsed] = make(map[string]models.RiskBreakdown)
		}
		cmp.RiskAnalysis[r.ModelUsed][r.PredictedRisk] = models.RiskBreakdown{
			Count:         r.Count,
			AvgConfidence: round(r.AvgConfidence, 4),
		}
	}
	return cmp, nil
}

// ExportAll writes every record, newest first, as CSV to path and returns
// the number of rows written. Rows go to a temporary file in the same
// directory that is renamed onto path only once it is complete, so a failed
// export leaves nothing behind. With no records it returns ErrNoRecords and
// creates no file.
func (s *PredictionStore) ExportAll(ctx context.Context, path string) (int, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	rows, err := db.Model(&models.PredictionRecord{}).Order("timestamp DESC").Order("id DESC").Rows()
	if err != nil {
		return 0, fmt.Errorf("export predictions: %w", err)
	}
	defer rows.Close()

	var (
		f     *os.File
		w     *csv.Writer
		count int
	)
	discard := func(err error) (int, error) {
		if f != nil {
			f.Close()
			os.Remove(f.Name())
		}
		return 0, err
	}

	for rows.Next() {
		var rec models.PredictionRecord
		if err := db.ScanRows(rows, &rec); err != nil {
			return discard(fmt.Errorf("export predictions: %w", err))
		}
		if f == nil {
			f, err = os.CreateTemp(filepath.Dir(path), ".predictions-export-*.csv")
			if err != nil {
				return 0, fmt.Errorf("create export file: %w", err)
			}
			w = csv.NewWriter(f)
			if err := w.Write(models.ExportHeader); err != nil {
				return discard(fmt.Errorf("write export header: %w", err))
			}
		}
		if err := w.Write(rec.ExportRow()); err != nil {
			return discard(fmt.Errorf("write export row: %w", err))
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return discard(fmt.Errorf("export predictions: %w", err))
	}
	if count == 0 {
		return 0, ErrNoRecords
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return discard(fmt.Errorf("flush export: %w", err))
	}
	if err := f.Chmod(0o644); err != nil {
		return discard(fmt.Errorf("export permissions: %w", err))
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("move export file: %w", err)
	}
	return count, nil
}

// PruneOlderThan deletes records created strictly before now minus days.
func (s *PredictionStore) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("timestamp < ?", cutoff).Delete(&models.PredictionRecord{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("prune predictions: %w", err)
	}
	recordsPruned.Add(float64(deleted))
	return deleted, nil
}

// Ping checks the underlying database connection.
func (s *PredictionStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return database.Ping(ctx, s.db)
}
