package app

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"plank/internal/domain"
)

// MaxNameLength bounds the profile name after sanitising.
const MaxNameLength = 64

// TrendField names a metric series.
type TrendField string

// Trend fields.
const (
	TrendWeight TrendField = "weight"
	TrendWaist  TrendField = "waist"
)

// TrendPoint is one dated value of a metric series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ProfileService manages the owner's profile and body metrics.
type ProfileService struct {
	store  domain.KeyValueStore
	clock  domain.Clock
	logger *slog.Logger
	policy *bluemonday.Policy

	mu sync.Mutex
}

// NewProfileService creates a ProfileService over store.
func NewProfileService(store domain.KeyValueStore, clock domain.Clock, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		clock:  clock,
		logger: orDefault(logger),
		policy: bluemonday.StrictPolicy(),
	}
}

// Profile returns the stored profile, materialising and saving the default
// one when nothing usable is stored.
func (s *ProfileService) Profile(ctx context.Context) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *ProfileService) load(ctx context.Context) (domain.UserProfile, error) {
	p, found, err := loadJSON[domain.UserProfile](ctx, s.store, s.logger, domain.ProfileKey)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if found {
		if p.Metrics == nil {
			p.Metrics = []domain.BodyMetric{}
		}
		return p, nil
	}

	p = domain.DefaultProfile(s.clock.Now())
	if err := saveJSON(ctx, s.store, domain.ProfileKey, p); err != nil {
		return domain.UserProfile{}, err
	}
	s.logger.InfoContext(ctx, "default profile created")
	return p, nil
}

// UpsertMetric merges m into the record with the same date, or appends it,
// then keeps the list sorted by date and saves the profile.
func (s *ProfileService) UpsertMetric(ctx context.Context, m domain.BodyMetric) (domain.UserProfile, error) {
	if err := m.Validate(); err != nil {
		return domain.UserProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load(ctx)
	if err != nil {
		return domain.UserProfile{}, err
	}
	p := stored.Clone()

	merged := false
	for i := range p.Metrics {
		if p.Metrics[i].Date == m.Date {
			p.Metrics[i] = p.Metrics[i].Merge(m)
			merged = true
			break
		}
	}
	if !merged {
		p.Metrics = append(p.Metrics, m)
	}
	sort.SliceStable(p.Metrics, func(i, j int) bool { return p.Metrics[i].Date < p.Metrics[j].Date })

	if err := saveJSON(ctx, s.store, domain.ProfileKey, p); err != nil {
		return domain.UserProfile{}, err
	}
	return p, nil
}

// UpdateProfile sets the display name and gender. Markup is stripped from
// the name.
func (s *ProfileService) UpdateProfile(ctx context.Context, name string, gender domain.Gender) (domain.UserProfile, error) {
	clean := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(name)))
	if clean == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: name is required", domain.ErrInvalidProfile)
	}
	if len([]rune(clean)) > MaxNameLength {
		return domain.UserProfile{}, fmt.Errorf("%w: name longer than %d characters", domain.ErrInvalidProfile, MaxNameLength)
	}
	if !gender.Valid() {
		return domain.UserProfile{}, fmt.Errorf("%w: gender must be male, female or other", domain.ErrInvalidProfile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.load(ctx)
	if err != nil {
		return domain.UserProfile{}, err
	}
	p := stored.Clone()
	p.Name = clean
	p.Gender = gender
	if err := saveJSON(ctx, s.store, domain.ProfileKey, p); err != nil {
		return domain.UserProfile{}, err
	}
	return p, nil
}

// MetricDraft returns form defaults for a new metric dated today, prefilled
// from the latest record. Missing or zero values fall back to the defaults.
func (s *ProfileService) MetricDraft(ctx context.Context) (domain.BodyMetric, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return domain.BodyMetric{}, err
	}

	weight, waist, age := domain.DefaultWeight, domain.DefaultWaist, domain.DefaultAge
	if n := len(p.Metrics); n > 0 {
		last := p.Metrics[n-1]
		if last.Weight != nil && *last.Weight != 0 {
			weight = *last.Weight
		}
		if last.Waist != nil && *last.Waist != 0 {
			waist = *last.Waist
		}
		if last.Age != nil && *last.Age != 0 {
			age = *last.Age
		}
	}
	return domain.BodyMetric{
		Date:   domain.LocalDay(s.clock.Now()),
		Weight: &weight,
		Waist:  &waist,
		Age:    &age,
	}, nil
}

// Trend returns the dated values of field. Records without the field are
// skipped.
func (s *ProfileService) Trend(ctx context.Context, field TrendField) ([]TrendPoint, error) {
	if field != TrendWeight && field != TrendWaist {
		return nil, fmt.Errorf("%w: unknown trend field %q", domain.ErrInvalidMetric, field)
	}
	p, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(p.Metrics))
	for _, m := range p.Metrics {
		v := m.Weight
		if field == TrendWaist {
			v = m.Waist
		}
		if v == nil {
			continue
		}
		points = append(points, TrendPoint{Date: m.Date, Value: *v})
	}
	return points, nil
}
