package services

import (
	"fmt"

	"transit-delay-api/models"
)

// Feature columns written by Encode. Every model schema must contain them.
const (
	ColumnHour          = "hour"
	ColumnTransportType = "TransportType_encoded"
	ColumnLine          = "Line_encoded"
	ColumnStatus        = "Status_encoded"
	ColumnIncidentCause = "IncidentCause_encoded"
)

// DefaultFeatureColumns is used when the model manifest does not list columns.
var DefaultFeatureColumns = []string{ColumnHour, ColumnTransportType, ColumnLine, ColumnStatus, ColumnIncidentCause}

const statusDelayed = 1

const (
	causeTraffic = 1
	causeWeather = 2
	causePlanned = 3
)

// FeatureSchema is the ordered column list shared by every model in a registry.
type FeatureSchema struct {
	columns []string
	index   map[string]int
}

func NewFeatureSchema(columns []string) (*FeatureSchema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("feature schema: no columns")
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("feature schema: duplicate column %q", c)
		}
		index[c] = i
	}
	for _, required := range DefaultFeatureColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("feature schema: missing column %q", required)
		}
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &FeatureSchema{columns: cols, index: index}, nil
}

func (s *FeatureSchema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s *FeatureSchema) Index(column string) (int, bool) {
	i, ok := s.index[column]
	return i, ok
}

func (s *FeatureSchema) Len() int { return len(s.columns) }

// FeatureVector holds one value per schema column, in schema order.
type FeatureVector struct {
	schema *FeatureSchema
	values []float64
}

func (v FeatureVector) Get(column string) (float64, bool) {
	i, ok := v.schema.Index(column)
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Values returns the raw vector. Callers must not modify it.
func (v FeatureVector) Values() []float64 { return v.values }

func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for i, c := range v.schema.columns {
		out[c] = v.values[i]
	}
	return out
}

func (v FeatureVector) set(column string, value float64) {
	if i, ok := v.schema.Index(column); ok {
		v.values[i] = value
	}
}

// Encode maps a request onto the schema. All columns start at zero; only the
// five known columns are populated. Status is always "delayed": the models
// estimate delay magnitude for a trip already known to be disrupted.
func Encode(req models.PredictionRequest, schema *FeatureSchema) FeatureVector {
	v := FeatureVector{schema: schema, values: make([]float64, schema.Len())}

	v.set(ColumnHour, float64(req.Hour))
	v.set(ColumnTransportType, float64(models.TransportType(req.TransportType).Code()))
	v.set(ColumnLine, float64(models.Line(req.Line).Code()))
	v.set(ColumnStatus, statusDelayed)
	v.set(ColumnIncidentCause, float64(incidentCause(req)))

	return v
}

func incidentCause(req models.PredictionRequest) int {
	switch {
	case models.Weather(req.Weather).IsRain():
		return causeWeather
	case models.EventFlag(req.Event).IsYes():
		return causePlanned
	default:
		return causeTraffic
	}
}
