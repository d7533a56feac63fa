package models

import (
	"testing"
	"time"
)

func TestRouteCodesOrderAndCase(t *testing.T) {
	j := Journey{
		SourceCode:      "ndls",
		Stations:        []string{"cnb", "ALD"},
		DestinationCode: "bct",
	}

	got := j.RouteCodes()
	want := []string{"NDLS", "CNB", "ALD", "BCT"}
	if len(got) != len(want) {
		t.Fatalf("RouteCodes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RouteCodes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestJourneyValidate(t *testing.T) {
	valid := Journey{
		CarrierID:       "carrier-1",
		SourceCode:      "NDLS",
		DestinationCode: "BCT",
		JourneyDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid journey rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Journey)
	}{
		{"missing carrier", func(j *Journey) { j.CarrierID = "" }},
		{"missing source", func(j *Journey) { j.SourceCode = "" }},
		{"same endpoints ignoring case", func(j *Journey) { j.DestinationCode = "ndls" }},
		{"missing date", func(j *Journey) { j.JourneyDate = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := valid
			tt.mutate(&j)
			if err := j.Validate(); err == nil {
				t.Error("invalid journey accepted")
			}
		})
	}
}

func TestParcelRequestValidate(t *testing.T) {
	valid := ParcelRequest{
		SenderID:      "sender-1",
		PickupStation: "NDLS",
		DropStation:   "BCT",
		WeightKg:      3,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid parcel rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ParcelRequest)
	}{
		{"missing sender", func(p *ParcelRequest) { p.SenderID = "" }},
		{"same stations ignoring case", func(p *ParcelRequest) { p.DropStation = "ndls" }},
		{"zero weight", func(p *ParcelRequest) { p.WeightKg = 0 }},
		{"negative weight", func(p *ParcelRequest) { p.WeightKg = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("invalid parcel accepted")
			}
		})
	}
}
