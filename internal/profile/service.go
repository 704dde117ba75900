// Package profile reads and writes user profiles, recomputing macro targets
// when a complete set of body stats is supplied.
package profile

import (
	"context"
	"database/sql"
	"log/slog"
	"math"

	"github.com/dukerupert/macrolog/internal/apperr"
	"github.com/dukerupert/macrolog/internal/model"
	"github.com/dukerupert/macrolog/internal/nutrition"
	"github.com/dukerupert/macrolog/internal/store"
)

type Service struct {
	profiles *store.ProfileStore
	policy   nutrition.OtherPolicy
	logger   *slog.Logger
}

func NewService(db *sql.DB, policy nutrition.OtherPolicy, logger *slog.Logger) *Service {
	return &Service{
		profiles: store.NewProfileStore(db),
		policy:   policy,
		logger:   logger,
	}
}

// Get returns the user's profile, or nil if none has been written.
func (s *Service) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("get profile", err)
	}
	return p, nil
}

// Update merges u into the user's profile, creating it on first write.
//
// When u carries all six body stats and no calorie_target value (absent or
// null), the four targets are recomputed from those stats and replace any
// targets in u.
func (s *Service) Update(ctx context.Context, userID string, u model.ProfileUpdate) (*model.UserProfile, error) {
	if err := validate(u); err != nil {
		return nil, err
	}

	if stats, ok := bodyStats(u); ok && !u.CalorieTarget.Present() {
		res, err := nutrition.Calculate(s.policy, stats)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		u.CalorieTarget = model.Some(float64(res.Targets.Calories))
		u.ProteinTargetG = model.Some(float64(res.Targets.Protein))
		u.CarbsTargetG = model.Some(float64(res.Targets.Carbs))
		u.FatTargetG = model.Some(float64(res.Targets.Fat))
		s.logger.Debug("targets recomputed", "user_id", userID, "tdee", res.TDEE, "calories", res.Targets.Calories)
	}

	current, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("get profile", err)
	}
	base := model.UserProfile{UserID: userID}
	if current != nil {
		base = *current
	}

	next := u.Apply(base)
	next.UserID = userID
	saved, err := s.profiles.Upsert(ctx, next)
	if err != nil {
		return nil, apperr.Persistence("save profile", err)
	}
	return saved, nil
}

// bodyStats returns the calculator inputs when all six are present in u.
func bodyStats(u model.ProfileUpdate) (nutrition.BodyStats, bool) {
	if !u.Gender.Present() || !u.Age.Present() || !u.HeightInches.Present() ||
		!u.WeightLbs.Present() || !u.ActivityLevel.Present() || !u.DietPlan.Present() {
		return nutrition.BodyStats{}, false
	}
	return nutrition.BodyStats{
		Gender:        nutrition.Gender(*u.Gender.Value),
		Age:           *u.Age.Value,
		HeightInches:  *u.HeightInches.Value,
		WeightLbs:     *u.WeightLbs.Value,
		ActivityLevel: nutrition.ActivityLevel(*u.ActivityLevel.Value),
		DietPlan:      nutrition.Goal(*u.DietPlan.Value),
	}, true
}

func validate(u model.ProfileUpdate) error {
	if u.Gender.Present() && !nutrition.Gender(*u.Gender.Value).Valid() {
		return apperr.Validation("gender must be male, female, or other")
	}
	if u.ActivityLevel.Present() && !nutrition.ActivityLevel(*u.ActivityLevel.Value).Valid() {
		return apperr.Validation("activity_level must be sedentary, light, moderate, active, or very_active")
	}
	if u.DietPlan.Present() && !nutrition.Goal(*u.DietPlan.Value).Valid() {
		return apperr.Validation("diet_plan must be maintain, lose, or gain")
	}

	positives := []struct {
		name string
		v    model.Optional[float64]
	}{
		{"age", u.Age},
		{"height_inches", u.HeightInches},
		{"weight_lbs", u.WeightLbs},
		{"calorie_target", u.CalorieTarget},
	}
	for _, f := range positives {
		if f.v.Present() && !positive(*f.v.Value) {
			return apperr.Validation("%s must be positive", f.name)
		}
	}

	grams := []struct {
		name string
		v    model.Optional[float64]
	}{
		{"protein_target_g", u.ProteinTargetG},
		{"carbs_target_g", u.CarbsTargetG},
		{"fat_target_g", u.FatTargetG},
	}
	for _, f := range grams {
		if f.v.Present() && !nonNegative(*f.v.Value) {
			return apperr.Validation("%s must not be negative", f.name)
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
