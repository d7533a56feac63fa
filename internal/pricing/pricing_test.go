package pricing

import (
	"errors"
	"testing"
)

// fixedDistances is a stub DistanceSource with a single known pair.
type fixedDistances map[[2]string]float64

func (f fixedDistances) Resolve(from, to string) (float64, bool) {
	if d, ok := f[[2]string{from, to}]; ok {
		return d, true
	}
	if d, ok := f[[2]string{to, from}]; ok {
		return d, true
	}
	return 0, false
}

func newTestCalculator(distances fixedDistances) *Calculator {
	return NewCalculator(DefaultConfig(), distances)
}

func TestQuoteBreakdown(t *testing.T) {
	calc := newTestCalculator(fixedDistances{{"NDLS", "BCT"}: 1384})

	q, err := calc.Quote(3, "NDLS", "BCT")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if q.RequiresManualQuote {
		t.Fatalf("unexpected manual quote: %s", q.Reason)
	}

	// 2-5 kg tier: base 100 + round(1384 * 1.0) = 1484.
	if q.Fee != 1484 {
		t.Errorf("Fee = %v, want 1484", q.Fee)
	}
	if q.Breakdown.BaseFee != 100 {
		t.Errorf("BaseFee = %v, want 100", q.Breakdown.BaseFee)
	}
	if q.Breakdown.DistanceFee != 1384 {
		t.Errorf("DistanceFee = %v, want 1384", q.Breakdown.DistanceFee)
	}
	if q.Breakdown.DistanceKm != 1384 {
		t.Errorf("DistanceKm = %v, want 1384", q.Breakdown.DistanceKm)
	}
	if q.Breakdown.WeightTier != "2-5 kg" {
		t.Errorf("WeightTier = %q, want %q", q.Breakdown.WeightTier, "2-5 kg")
	}
}

// Within a fixed weight tier the fee must be monotone in distance.
func TestFeeMonotoneInDistance(t *testing.T) {
	distances := []float64{1, 50, 100, 500, 1384, 2000}

	var prev float64 = -1
	for _, d := range distances {
		calc := newTestCalculator(fixedDistances{{"A", "B"}: d})
		q, err := calc.Quote(7, "A", "B")
		if err != nil {
			t.Fatalf("Quote(7, d=%v) failed: %v", d, err)
		}
		if q.Fee < prev {
			t.Errorf("fee decreased: distance %v gave %v after %v", d, q.Fee, prev)
		}
		prev = q.Fee
	}
}

// The boundary behavior around the maximum tier ceiling: exactly at the
// ceiling prices normally, anything above requires a manual quote.
func TestManualQuoteBoundary(t *testing.T) {
	calc := newTestCalculator(fixedDistances{{"A", "B"}: 100})

	at, err := calc.Quote(10, "A", "B")
	if err != nil {
		t.Fatalf("Quote(10) failed: %v", err)
	}
	if at.RequiresManualQuote {
		t.Errorf("weight at ceiling should price normally, got manual quote: %s", at.Reason)
	}
	if at.Fee != 150+150 { // 5-10 kg tier: base 150 + round(100*1.5)
		t.Errorf("Fee = %v, want 300", at.Fee)
	}

	above, err := calc.Quote(10.001, "A", "B")
	if err != nil {
		t.Fatalf("Quote(10.001) failed: %v", err)
	}
	if !above.RequiresManualQuote {
		t.Error("weight above ceiling must require a manual quote")
	}
	if above.Reason == "" {
		t.Error("manual quote must carry a reason")
	}
}

// An unresolvable station pair is a manual quote, never a guessed distance.
func TestUnknownDistanceRequiresManualQuote(t *testing.T) {
	calc := newTestCalculator(fixedDistances{})

	q, err := calc.Quote(3, "NDLS", "XYZ")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if !q.RequiresManualQuote {
		t.Error("unknown distance must require a manual quote")
	}
	if q.Fee != 0 {
		t.Errorf("manual quote carries no fee, got %v", q.Fee)
	}
}

func TestQuoteInputValidation(t *testing.T) {
	calc := newTestCalculator(fixedDistances{{"A", "B"}: 100})

	if _, err := calc.Quote(0, "A", "B"); !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("zero weight: err = %v, want ErrInvalidWeight", err)
	}
	if _, err := calc.Quote(-2, "A", "B"); !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("negative weight: err = %v, want ErrInvalidWeight", err)
	}
	if _, err := calc.Quote(3, "A", "a"); !errors.Is(err, ErrSameStation) {
		t.Errorf("same stations: err = %v, want ErrSameStation", err)
	}
	if _, err := calc.Quote(3, "", "B"); !errors.Is(err, ErrEmptyStation) {
		t.Errorf("empty station: err = %v, want ErrEmptyStation", err)
	}
}

func TestTierFor(t *testing.T) {
	calc := newTestCalculator(nil)

	cases := []struct {
		weight float64
		label  string
		ok     bool
	}{
		{0.5, "Under 2 kg", true},
		{2, "Under 2 kg", true},
		{2.1, "2-5 kg", true},
		{5, "2-5 kg", true},
		{7.5, "5-10 kg", true},
		{10, "5-10 kg", true},
		{10.5, "", false},
	}
	for _, tc := range cases {
		tier, ok := calc.TierFor(tc.weight)
		if ok != tc.ok {
			t.Errorf("TierFor(%v) ok = %v, want %v", tc.weight, ok, tc.ok)
			continue
		}
		if ok && tier.Label != tc.label {
			t.Errorf("TierFor(%v) = %q, want %q", tc.weight, tier.Label, tc.label)
		}
	}
}

func TestFormatFee(t *testing.T) {
	if got := FormatFee(1484); got != "₹1484" {
		t.Errorf("FormatFee(1484) = %q, want %q", got, "₹1484")
	}
}
