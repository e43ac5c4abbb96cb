package pricing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeMatrix serves matrix rows from memory.
type fakeMatrix struct {
	rows []MatrixRow
}

func (f *fakeMatrix) RowsFor(_ context.Context, brand, model string, st ServiceType) ([]MatrixRow, error) {
	var out []MatrixRow
	for _, r := range f.rows {
		if strings.EqualFold(r.Brand, brand) && strings.EqualFold(r.Model, model) && r.ServiceType == st {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeMatrix) RowsForBrand(_ context.Context, brand string, st ServiceType) ([]MatrixRow, error) {
	var out []MatrixRow
	for _, r := range f.rows {
		if strings.EqualFold(r.Brand, brand) && r.ServiceType == st {
			out = append(out, r)
		}
	}
	return out, nil
}

func testService(rows []MatrixRow, year int) *Service {
	svc := NewService(&fakeMatrix{rows: rows})
	svc.now = func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func golfMatrix() []MatrixRow {
	return []MatrixRow{
		{
			Brand: "VW", Model: "Golf 7", YearFrom: 2012, YearTo: 2020,
			ServiceType: ServiceInspection,
			TierUnder40: 24900, TierUnder70: 29900, TierUnder100: 34900, TierOver100: 39900,
		},
		{
			Brand: "VW", Model: "Golf 7", YearFrom: 2012, YearTo: 2020,
			ServiceType: ServiceOilChange, Price: 14900,
		},
		{
			Brand: "VW", Model: "Passat B8", YearFrom: 2014, YearTo: 2023,
			ServiceType: ServiceInspection,
			TierUnder40: 26900, TierUnder70: 31900, TierUnder100: 36900, TierOver100: 41900,
		},
	}
}

func TestCalculateExactMatchInspectionTier(t *testing.T) {
	svc := testService(golfMatrix(), 2024)

	q, err := svc.Calculate(context.Background(), Request{
		Brand: "VW", Model: "Golf 7", Year: 2018, Mileage: 75000, ServiceType: ServiceInspection,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if q.PriceSource != SourceExactMatch {
		t.Errorf("price source = %s, want %s", q.PriceSource, SourceExactMatch)
	}
	if q.MileageInterval != IntervalUnder100 {
		t.Errorf("mileage interval = %s, want %s", q.MileageInterval, IntervalUnder100)
	}
	if q.BasePrice.Amount != 34900 {
		t.Errorf("base price = %d, want 34900", q.BasePrice.Amount)
	}
	if q.AgeMultiplier != 1.0 {
		t.Errorf("age multiplier = %v, want 1.0", q.AgeMultiplier)
	}
	if q.FinalPrice.Amount != 34900 {
		t.Errorf("final price = %d, want 34900", q.FinalPrice.Amount)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	svc := testService(golfMatrix(), 2024)
	req := Request{Brand: "VW", Model: "Golf 7", Year: 2018, Mileage: 75000, ServiceType: ServiceInspection}

	first, err := svc.Calculate(context.Background(), req)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	for i := 0; i < 10; i++ {
		q, err := svc.Calculate(context.Background(), req)
		if err != nil {
			t.Fatalf("calculate #%d: %v", i, err)
		}
		if q != first {
			t.Fatalf("quote #%d = %+v, want %+v", i, q, first)
		}
	}
}

func TestCalculateMileageTiers(t *testing.T) {
	svc := testService(golfMatrix(), 2024)

	cases := []struct {
		mileage      int
		wantBase     int64
		wantInterval string
	}{
		{0, 24900, IntervalUnder40},
		{39999, 24900, IntervalUnder40},
		{40000, 29900, IntervalUnder70},
		{69999, 29900, IntervalUnder70},
		{70000, 34900, IntervalUnder100},
		{99999, 34900, IntervalUnder100},
		{100000, 39900, IntervalOver100},
		{500000, 39900, IntervalOver100},
	}
	for _, tc := range cases {
		q, err := svc.Calculate(context.Background(), Request{
			Brand: "VW", Model: "Golf 7", Year: 2018, Mileage: tc.mileage, ServiceType: ServiceInspection,
		})
		if err != nil {
			t.Fatalf("mileage %d: %v", tc.mileage, err)
		}
		if q.BasePrice.Amount != tc.wantBase || q.MileageInterval != tc.wantInterval {
			t.Errorf("mileage %d: got (%d, %s), want (%d, %s)",
				tc.mileage, q.BasePrice.Amount, q.MileageInterval, tc.wantBase, tc.wantInterval)
		}
	}
}

func TestCalculateAgeMultiplier(t *testing.T) {
	svc := testService(golfMatrix(), 2024)

	cases := []struct {
		year      int
		wantMult  float64
		wantFinal int64
	}{
		{2018, 1.0, 14900},  // age 6
		{2014, 1.0, 14900},  // age 10, boundary stays at 1.0
		{2013, 1.1, 16390},  // age 11
		{2012, 1.1, 16390},  // age 12
	}
	for _, tc := range cases {
		q, err := svc.Calculate(context.Background(), Request{
			Brand: "VW", Model: "Golf 7", Year: tc.year, Mileage: 50000, ServiceType: ServiceOilChange,
		})
		if err != nil {
			t.Fatalf("year %d: %v", tc.year, err)
		}
		if q.AgeMultiplier != tc.wantMult {
			t.Errorf("year %d: multiplier = %v, want %v", tc.year, q.AgeMultiplier, tc.wantMult)
		}
		if q.FinalPrice.Amount != tc.wantFinal {
			t.Errorf("year %d: final = %d, want %d", tc.year, q.FinalPrice.Amount, tc.wantFinal)
		}
	}
}

func TestCalculateOver15YearsMultiplier(t *testing.T) {
	rows := []MatrixRow{{
		Brand: "VW", Model: "Golf 4", YearFrom: 1997, YearTo: 2006,
		ServiceType: ServiceBrakes, Price: 20000,
	}}
	svc := testService(rows, 2024)

	q, err := svc.Calculate(context.Background(), Request{
		Brand: "VW", Model: "Golf 4", Year: 2005, Mileage: 180000, ServiceType: ServiceBrakes,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if q.AgeMultiplier != 1.2 {
		t.Errorf("age multiplier = %v, want 1.2", q.AgeMultiplier)
	}
	if q.FinalPrice.Amount != 24000 {
		t.Errorf("final = %d, want 24000", q.FinalPrice.Amount)
	}
}

func TestCalculateBrandAverageFallback(t *testing.T) {
	svc := testService(golfMatrix(), 2024)

	// Tiguan has no matrix row; falls back to the VW average.
	q, err := svc.Calculate(context.Background(), Request{
		Brand: "VW", Model: "Tiguan", Year: 2019, Mileage: 30000, ServiceType: ServiceInspection,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if q.PriceSource != SourceBrandAverage {
		t.Errorf("price source = %s, want %s", q.PriceSource, SourceBrandAverage)
	}
	// Average of the two VW inspection rows at the under-40k tier.
	if want := int64((24900 + 26900) / 2); q.BasePrice.Amount != want {
		t.Errorf("base = %d, want %d", q.BasePrice.Amount, want)
	}
}

func TestCalculateYearOutsideRangeUsesBrandAverage(t *testing.T) {
	svc := testService(golfMatrix(), 2024)

	q, err := svc.Calculate(context.Background(), Request{
		Brand: "VW", Model: "Golf 7", Year: 2021, Mileage: 10000, ServiceType: ServiceInspection,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if q.PriceSource != SourceBrandAverage {
		t.Errorf("price source = %s, want %s", q.PriceSource, SourceBrandAverage)
	}
}

func TestCalculateDefaultFallback(t *testing.T) {
	svc := testService(nil, 2024)

	q, err := svc.Calculate(context.Background(), Request{
		Brand: "Lada", Model: "Niva", Year: 2015, Mileage: 60000, ServiceType: ServiceInspection,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if q.PriceSource != SourceDefault {
		t.Errorf("price source = %s, want %s", q.PriceSource, SourceDefault)
	}
	if q.BasePrice.Amount != defaultPrices[ServiceInspection] {
		t.Errorf("base = %d, want default %d", q.BasePrice.Amount, defaultPrices[ServiceInspection])
	}
}

func TestCalculateValidation(t *testing.T) {
	svc := testService(golfMatrix(), 2024)

	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"empty brand", Request{Model: "Golf 7", Year: 2018, Mileage: 1000, ServiceType: ServiceInspection}, "brand"},
		{"empty model", Request{Brand: "VW", Year: 2018, Mileage: 1000, ServiceType: ServiceInspection}, "model"},
		{"year too old", Request{Brand: "VW", Model: "Golf 7", Year: 1993, Mileage: 1000, ServiceType: ServiceInspection}, "year"},
		{"year in future", Request{Brand: "VW", Model: "Golf 7", Year: 2025, Mileage: 1000, ServiceType: ServiceInspection}, "year"},
		{"mileage too high", Request{Brand: "VW", Model: "Golf 7", Year: 2018, Mileage: 500001, ServiceType: ServiceInspection}, "mileage"},
		{"unknown service", Request{Brand: "VW", Model: "Golf 7", Year: 2018, Mileage: 1000, ServiceType: "detailing"}, "servicetype"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Calculate(context.Background(), tc.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q does not name field %q", err.Error(), tc.field)
			}
		})
	}
}
