package models

import (
	"testing"
	"time"
)

func TestTransportTypeCode(t *testing.T) {
	tests := []struct {
		in   TransportType
		want int
	}{
		{"Bus", 0},
		{"Metro", 1},
		{"Train", 2},
		{"Tram", 0},
		{"", 0},
		{"bus", 0},
	}
	for _, tt := range tests {
		if got := tt.in.Code(); got != tt.want {
			t.Errorf("TransportType(%q).Code() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLineCode(t *testing.T) {
	tests := []struct {
		in   Line
		want int
	}{
		{"Line1", 0},
		{"Line2", 1},
		{"Line3", 2},
		{"Line4", 3},
		{"Line5", 4},
		{"Line9", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := tt.in.Code(); got != tt.want {
			t.Errorf("Line(%q).Code() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWeatherIsRain(t *testing.T) {
	for _, w := range []Weather{"Rain", "rain", "Pluie"} {
		if !w.IsRain() {
			t.Errorf("Weather(%q).IsRain() = false, want true", w)
		}
	}
	for _, w := range []Weather{"Sun", "Normal", "Snow", "Storm", ""} {
		if w.IsRain() {
			t.Errorf("Weather(%q).IsRain() = true, want false", w)
		}
	}
}

func TestEventFlagIsYes(t *testing.T) {
	for _, e := range []EventFlag{"Yes", "yes", "Oui"} {
		if !e.IsYes() {
			t.Errorf("EventFlag(%q).IsYes() = false, want true", e)
		}
	}
	for _, e := range []EventFlag{"No", "Non", "None", ""} {
		if e.IsYes() {
			t.Errorf("EventFlag(%q).IsYes() = true, want false", e)
		}
	}
}

func TestExportRow(t *testing.T) {
	ts := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	rec := PredictionRecord{
		ID: 7, TransportType: "Bus", Line: "Line1", Hour: 8, Day: "Monday",
		Weather: "Rain", Event: "No", ModelUsed: "random_forest",
		PredictedDelay: 12.5, PredictedRisk: "Medium", PredictedProbability: 51.2,
		Timestamp: ts,
	}

	row := rec.ExportRow()
	if len(row) != len(ExportHeader) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(ExportHeader))
	}
	if row[0] != "7" || row[8] != "12.5" || row[13] != "2025-03-10T08:30:00Z" {
		t.Errorf("unexpected row: %v", row)
	}
	if row[11] != "" || row[12] != "" {
		t.Errorf("nil actuals should export empty, got %q %q", row[11], row[12])
	}

	delay, risk := 20.0, "High"
	rec.ActualDelay, rec.ActualRisk = &delay, &risk
	row = rec.ExportRow()
	if row[11] != "20" || row[12] != "High" {
		t.Errorf("actuals = %q %q, want 20 High", row[11], row[12])
	}
}
