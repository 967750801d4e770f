package domain

import (
	"fmt"
	"math"
	"time"
)

// Gender of the profile owner.
type Gender string

// Accepted genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// BodyMetric is one dated body measurement. Nil fields were not provided.
type BodyMetric struct {
	Date   string   `json:"date"`
	Weight *float64 `json:"weight,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Age    *int     `json:"age,omitempty"`
}

// Validate checks the date format and that provided values are finite and
// non-negative.
func (m BodyMetric) Validate() error {
	if _, err := ParseDay(m.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetric, err)
	}
	if m.Weight != nil && !nonNegative(*m.Weight) {
		return fmt.Errorf("%w: weight must be >= 0", ErrInvalidMetric)
	}
	if m.Waist != nil && !nonNegative(*m.Waist) {
		return fmt.Errorf("%w: waist must be >= 0", ErrInvalidMetric)
	}
	if m.Age != nil && *m.Age < 0 {
		return fmt.Errorf("%w: age must be >= 0", ErrInvalidMetric)
	}
	return nil
}

// Merge returns m with every non-nil field of other applied on top.
func (m BodyMetric) Merge(other BodyMetric) BodyMetric {
	if other.Weight != nil {
		m.Weight = other.Weight
	}
	if other.Waist != nil {
		m.Waist = other.Waist
	}
	if other.Age != nil {
		m.Age = other.Age
	}
	return m
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// UserProfile is the single owner's profile.
type UserProfile struct {
	Name    string       `json:"name"`
	Gender  Gender       `json:"gender"`
	Metrics []BodyMetric `json:"metrics"`
}

// Default profile values used on first run.
const (
	DefaultName   = "Athlete"
	DefaultWeight = 60.0
	DefaultWaist  = 70.0
	DefaultAge    = 25
)

// DefaultProfile returns the profile materialised when none is stored.
func DefaultProfile(today time.Time) UserProfile {
	weight, waist, age := DefaultWeight, DefaultWaist, DefaultAge
	return UserProfile{
		Name:   DefaultName,
		Gender: GenderMale,
		Metrics: []BodyMetric{
			{Date: LocalDay(today), Weight: &weight, Waist: &waist, Age: &age},
		},
	}
}

// Clone returns a deep copy so callers can mutate without touching a shared snapshot.
func (p UserProfile) Clone() UserProfile {
	out := p
	out.Metrics = make([]BodyMetric, len(p.Metrics))
	for i, m := range p.Metrics {
		c := BodyMetric{Date: m.Date}
		if m.Weight != nil {
			v := *m.Weight
			c.Weight = &v
		}
		if m.Waist != nil {
			v := *m.Waist
			c.Waist = &v
		}
		if m.Age != nil {
			v := *m.Age
			c.Age = &v
		}
		out.Metrics[i] = c
	}
	return out
}
