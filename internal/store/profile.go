package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/macrolog/internal/model"
	"github.com/google/uuid"
)

type ProfileStore struct {
	db DBTX
}

func NewProfileStore(db DBTX) *ProfileStore {
	return &ProfileStore{db: db}
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.UserProfile, error) {
	var p model.UserProfile
	var gender, activity, diet sql.NullString
	var age, height, weight, cal, protein, carbs, fat sql.NullFloat64

	err := scanner.Scan(
		&p.ID, &p.UserID, &gender, &age, &height, &weight, &activity, &diet,
		&cal, &protein, &carbs, &fat, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Gender = stringPtr(gender)
	p.Age = floatPtr(age)
	p.HeightInches = floatPtr(height)
	p.WeightLbs = floatPtr(weight)
	p.ActivityLevel = stringPtr(activity)
	p.DietPlan = stringPtr(diet)
	p.CalorieTarget = floatPtr(cal)
	p.ProteinTargetG = floatPtr(protein)
	p.CarbsTargetG = floatPtr(carbs)
	p.FatTargetG = floatPtr(fat)
	return &p, nil
}

const profileCols = `id, user_id, gender, age, height_inches, weight_lbs, activity_level, diet_plan, calorie_target, protein_target_g, carbs_target_g, fat_target_g, created_at, updated_at`

// GetByUserID returns the user's profile, or nil if none has been written.
func (s *ProfileStore) GetByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM user_profile WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Upsert creates the user's profile or replaces every field of the existing
// one. id and created_at of an existing profile are kept.
func (s *ProfileStore) Upsert(ctx context.Context, p model.UserProfile) (*model.UserProfile, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profile (id, user_id, gender, age, height_inches, weight_lbs, activity_level, diet_plan,
		   calorie_target, protein_target_g, carbs_target_g, fat_target_g)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   gender = excluded.gender,
		   age = excluded.age,
		   height_inches = excluded.height_inches,
		   weight_lbs = excluded.weight_lbs,
		   activity_level = excluded.activity_level,
		   diet_plan = excluded.diet_plan,
		   calorie_target = excluded.calorie_target,
		   protein_target_g = excluded.protein_target_g,
		   carbs_target_g = excluded.carbs_target_g,
		   fat_target_g = excluded.fat_target_g,
		   updated_at = CURRENT_TIMESTAMP`,
		uuid.NewString(), p.UserID,
		nullString(p.Gender), nullFloat(p.Age), nullFloat(p.HeightInches), nullFloat(p.WeightLbs),
		nullString(p.ActivityLevel), nullString(p.DietPlan),
		nullFloat(p.CalorieTarget), nullFloat(p.ProteinTargetG), nullFloat(p.CarbsTargetG), nullFloat(p.FatTargetG),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return s.GetByUserID(ctx, p.UserID)
}
