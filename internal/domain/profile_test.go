package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"plank/internal/domain"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestBodyMetricValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       domain.BodyMetric
		wantErr bool
	}{
		{"date only", domain.BodyMetric{Date: "2026-01-02"}, false},
		{"all fields", domain.BodyMetric{Date: "2026-01-02", Weight: f64(70), Waist: f64(80), Age: intp(30)}, false},
		{"zero is allowed", domain.BodyMetric{Date: "2026-01-02", Weight: f64(0)}, false},
		{"bad date", domain.BodyMetric{Date: "2026-1-2"}, true},
		{"negative waist", domain.BodyMetric{Date: "2026-01-02", Waist: f64(-1)}, true},
		{"nan weight", domain.BodyMetric{Date: "2026-01-02", Weight: f64(math.NaN())}, true},
		{"infinite weight", domain.BodyMetric{Date: "2026-01-02", Weight: f64(math.Inf(1))}, true},
		{"negative age", domain.BodyMetric{Date: "2026-01-02", Age: intp(-4)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v; wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidMetric) {
				t.Fatalf("expected ErrInvalidMetric, got %v", err)
			}
		})
	}
}

func TestBodyMetricMerge(t *testing.T) {
	base := domain.BodyMetric{Date: "2026-01-02", Weight: f64(70), Waist: f64(80)}
	got := base.Merge(domain.BodyMetric{Date: "2026-01-02", Waist: f64(78), Age: intp(31)})

	if *got.Weight != 70 || *got.Waist != 78 || *got.Age != 31 {
		t.Fatalf("unexpected merge result %+v", got)
	}
	if *base.Waist != 80 {
		t.Fatal("merge must not modify the receiver's values")
	}
}

func TestDefaultProfile(t *testing.T) {
	p := domain.DefaultProfile(time.Date(2026, 5, 6, 23, 30, 0, 0, time.UTC))

	if p.Name != domain.DefaultName || p.Gender != domain.GenderMale {
		t.Fatalf("unexpected identity %+v", p)
	}
	if len(p.Metrics) != 1 || p.Metrics[0].Date != "2026-05-06" {
		t.Fatalf("expected one metric dated today, got %+v", p.Metrics)
	}
	if *p.Metrics[0].Weight != domain.DefaultWeight || *p.Metrics[0].Waist != domain.DefaultWaist || *p.Metrics[0].Age != domain.DefaultAge {
		t.Fatalf("unexpected default metric %+v", p.Metrics[0])
	}
}

func TestUserProfileClone(t *testing.T) {
	p := domain.DefaultProfile(time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC))
	c := p.Clone()
	*c.Metrics[0].Weight = 99

	if *p.Metrics[0].Weight != domain.DefaultWeight {
		t.Fatal("clone shares metric values with the original")
	}
}

func TestGenderValid(t *testing.T) {
	for _, g := range []domain.Gender{domain.GenderMale, domain.GenderFemale, domain.GenderOther} {
		if !g.Valid() {
			t.Errorf("%q should be valid", g)
		}
	}
	if domain.Gender("").Valid() || domain.Gender("robot").Valid() {
		t.Error("unexpected valid gender")
	}
}
