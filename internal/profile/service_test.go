package profile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/macrolog/internal/apperr"
	"github.com/dukerupert/macrolog/internal/database"
	"github.com/dukerupert/macrolog/internal/model"
	"github.com/dukerupert/macrolog/internal/nutrition"
)

func setupService(t *testing.T, policy nutrition.OtherPolicy) *Service {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db, policy, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fullStats() model.ProfileUpdate {
	return model.ProfileUpdate{
		Gender:        model.Some("male"),
		Age:           model.Some(30.0),
		HeightInches:  model.Some(70.0),
		WeightLbs:     model.Some(170.0),
		ActivityLevel: model.Some("moderate"),
		DietPlan:      model.Some("maintain"),
	}
}

func TestGetAbsent(t *testing.T) {
	s := setupService(t, nutrition.OtherAsFemale)
	p, err := s.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p != nil {
		t.Errorf("profile = %+v, want nil", p)
	}
}

func TestUpdateComputesTargets(t *testing.T) {
	s := setupService(t, nutrition.OtherAsFemale)

	p, err := s.Update(context.Background(), "user-1", fullStats())
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	want := map[string]float64{"calories": 2693, "protein": 153, "carbs": 332, "fat": 84}
	got := map[string]*float64{"calories": p.CalorieTarget, "protein": p.ProteinTargetG, "carbs": p.CarbsTargetG, "fat": p.FatTargetG}
	for k, w := range want {
		if got[k] == nil || *got[k] != w {
			t.Errorf("%s target = %v, want %v", k, got[k], w)
		}
	}
}

func TestUpdateExplicitCalorieTargetSuppressesCalc(t *testing.T) {
	s := setupService(t, nutrition.OtherAsFemale)

	u := fullStats()
	u.CalorieTarget = model.Some(2000.0)
	p, err := s.Update(context.Background(), "user-1", u)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if *p.CalorieTarget != 2000 {
		t.Errorf("calorie_target = %v, want 2000", *p.CalorieTarget)
	}
	if p.ProteinTargetG != nil {
		t.Errorf("protein_target_g = %v, want nil", *p.ProteinTargetG)
	}
}

func TestUpdateNullCalorieTargetStillComputes(t *testing.T) {
	s := setupService(t, nutrition.OtherAsFemale)

	var u model.ProfileUpdate
	body := `{"gender":"male","age":30,"height_inches":70,"weight_lbs":170,
		"activity_level":"moderate","diet_plan":"maintain","calorie_target":null}`
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p, err := s.Update(context.Background(), "user-1", u)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	want := map[string]float64{"calories": 2693, "protein": 153, "carbs": 332, "fat": 84}
	got := map[string]*float64{"calories": p.CalorieTarget, "protein": p.ProteinTargetG, "carbs": p.CarbsTargetG, "fat": p.FatTargetG}
	for k, w := range want {
		if got[k] == nil || *got[k] != w {
			t.Errorf("%s target = %v, want %v", k, got[k], w)
		}
	}
}

func TestUpdatePartialStatsDoesNotRecompute(t *testing.T) {
	ctx := context.Background()
	s := setupService(t, nutrition.OtherAsFemale)

	if _, err := s.Update(ctx, "user-1", fullStats()); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Weight alone changes, targets stay as computed for 170 lb.
	p, err := s.Update(ctx, "user-1", model.ProfileUpdate{WeightLbs: model.Some(200.0)})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if *p.WeightLbs != 200 {
		t.Errorf("weight = %v, want 200", *p.WeightLbs)
	}
	if *p.CalorieTarget != 2693 {
		t.Errorf("calorie_target = %v, want unchanged 2693", *p.CalorieTarget)
	}
	if *p.Gender != "male" {
		t.Errorf("gender = %v, want male kept", *p.Gender)
	}
}

func TestUpdateNullClearsField(t *testing.T) {
	ctx := context.Background()
	s := setupService(t, nutrition.OtherAsFemale)

	first, err := s.Update(ctx, "user-1", fullStats())
	if err != nil {
		t.Fatalf("first update: %v", err)
	}

	p, err := s.Update(ctx, "user-1", model.ProfileUpdate{DietPlan: model.Optional[string]{Set: true}})
	if err != nil {
		t.Fatalf("clear update: %v", err)
	}
	if p.DietPlan != nil {
		t.Errorf("diet_plan = %v, want nil", *p.DietPlan)
	}
	if p.ID != first.ID {
		t.Errorf("id = %q, want kept %q", p.ID, first.ID)
	}
}

func TestUpdateOtherPolicy(t *testing.T) {
	ctx := context.Background()
	u := fullStats()
	u.Gender = model.Some("other")

	fem, err := setupService(t, nutrition.OtherAsFemale).Update(ctx, "user-1", u)
	if err != nil {
		t.Fatalf("female policy: %v", err)
	}
	male, err := setupService(t, nutrition.OtherAsMale).Update(ctx, "user-1", u)
	if err != nil {
		t.Fatalf("male policy: %v", err)
	}
	if *male.CalorieTarget != 2693 {
		t.Errorf("male policy calories = %v, want 2693", *male.CalorieTarget)
	}
	if *fem.CalorieTarget >= *male.CalorieTarget {
		t.Errorf("female policy calories %v should be below male %v", *fem.CalorieTarget, *male.CalorieTarget)
	}
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name string
		u    model.ProfileUpdate
	}{
		{"bad gender", model.ProfileUpdate{Gender: model.Some("robot")}},
		{"bad activity", model.ProfileUpdate{ActivityLevel: model.Some("extreme")}},
		{"bad diet", model.ProfileUpdate{DietPlan: model.Some("bulk")}},
		{"zero age", model.ProfileUpdate{Age: model.Some(0.0)}},
		{"negative weight", model.ProfileUpdate{WeightLbs: model.Some(-10.0)}},
		{"zero calories", model.ProfileUpdate{CalorieTarget: model.Some(0.0)}},
		{"negative fat", model.ProfileUpdate{FatTargetG: model.Some(-1.0)}},
	}
	s := setupService(t, nutrition.OtherAsFemale)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Update(context.Background(), "user-1", tt.u)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	p, err := s.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p != nil {
		t.Error("rejected updates must not create a profile")
	}
}
