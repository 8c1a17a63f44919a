package services

import (
	"testing"

	"transit-delay-api/models"
)

func TestNewFeatureSchema(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		wantErr bool
	}{
		{"default", DefaultFeatureColumns, false},
		{"extra column", append([]string{"Weekday_encoded"}, DefaultFeatureColumns...), false},
		{"empty", nil, true},
		{"duplicate", append([]string{ColumnHour}, DefaultFeatureColumns...), true},
		{"missing status", []string{ColumnHour, ColumnTransportType, ColumnLine, ColumnIncidentCause}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFeatureSchema(tt.columns)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFeatureSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	schema := defaultSchema(t)

	tests := []struct {
		name string
		req  models.PredictionRequest
		want map[string]float64
	}{
		{
			name: "bus normal weather no event",
			req:  models.PredictionRequest{TransportType: "Bus", Line: "Line1", Hour: 8, Day: "Monday", Weather: "Normal", Event: "Non"},
			want: map[string]float64{ColumnHour: 8, ColumnTransportType: 0, ColumnLine: 0, ColumnStatus: 1, ColumnIncidentCause: 1},
		},
		{
			name: "rain wins over event",
			req:  models.PredictionRequest{TransportType: "Train", Line: "Line5", Hour: 17, Weather: "Rain", Event: "Yes"},
			want: map[string]float64{ColumnHour: 17, ColumnTransportType: 2, ColumnLine: 4, ColumnStatus: 1, ColumnIncidentCause: 2},
		},
		{
			name: "planned event",
			req:  models.PredictionRequest{TransportType: "Metro", Line: "Line3", Hour: 12, Weather: "Sun", Event: "Yes"},
			want: map[string]float64{ColumnHour: 12, ColumnTransportType: 1, ColumnLine: 2, ColumnStatus: 1, ColumnIncidentCause: 3},
		},
		{
			name: "unknown categories fall back to zero",
			req:  models.PredictionRequest{TransportType: "Ferry", Line: "Line42", Hour: 3, Weather: "Fog", Event: "maybe"},
			want: map[string]float64{ColumnHour: 3, ColumnTransportType: 0, ColumnLine: 0, ColumnStatus: 1, ColumnIncidentCause: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.req, schema).Map()
			for col, want := range tt.want {
				if got[col] != want {
					t.Errorf("%s = %v, want %v", col, got[col], want)
				}
			}
		})
	}
}

func TestEncodeFollowsSchemaOrder(t *testing.T) {
	cols := []string{ColumnIncidentCause, "Weekday_encoded", ColumnHour, ColumnStatus, ColumnLine, ColumnTransportType}
	schema, err := NewFeatureSchema(cols)
	if err != nil {
		t.Fatal(err)
	}

	fv := Encode(models.PredictionRequest{TransportType: "Metro", Line: "Line2", Hour: 9, Weather: "Rain"}, schema)
	want := []float64{2, 0, 9, 1, 1, 1}
	got := fv.Values()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("values[%d] (%s) = %v, want %v", i, cols[i], got[i], want[i])
		}
	}
}
