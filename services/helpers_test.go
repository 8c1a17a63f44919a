package services

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"transit-delay-api/database"
	"transit-delay-api/models"
)

// newTestDB opens a private in-memory SQLite database with the service schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "=", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type constModel float64

func (m constModel) Predict(context.Context, FeatureVector) (float64, error) {
	return float64(m), nil
}

// columnModel predicts the value of one feature column.
type columnModel string

func (m columnModel) Predict(_ context.Context, fv FeatureVector) (float64, error) {
	v, _ := fv.Get(string(m))
	return v, nil
}

type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }

func (r fixedRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

func defaultSchema(t *testing.T) *FeatureSchema {
	t.Helper()
	s, err := NewFeatureSchema(DefaultFeatureColumns)
	if err != nil {
		t.Fatalf("NewFeatureSchema: %v", err)
	}
	return s
}

func testRequest() models.PredictionRequest {
	return models.PredictionRequest{
		TransportType: "Bus",
		Line:          "Line1",
		Hour:          8,
		Day:           "Monday",
		Weather:       "Normal",
		Event:         "Non",
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
