package model

import (
	"bytes"
	"encoding/json"
	"time"
)

type UserProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Gender         *string   `json:"gender"`
	Age            *float64  `json:"age"`
	HeightInches   *float64  `json:"height_inches"`
	WeightLbs      *float64  `json:"weight_lbs"`
	ActivityLevel  *string   `json:"activity_level"`
	DietPlan       *string   `json:"diet_plan"`
	CalorieTarget  *float64  `json:"calorie_target"`
	ProteinTargetG *float64  `json:"protein_target_g"`
	CarbsTargetG   *float64  `json:"carbs_target_g"`
	FatTargetG     *float64  `json:"fat_target_g"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Optional is a JSON field that distinguishes "absent" from "null". Set is
// true when the key appeared in the document; Value is nil for an explicit
// null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Present reports whether the field was supplied with a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && o.Value != nil
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// ProfileUpdate is a partial profile write. Only fields with Set are changed.
type ProfileUpdate struct {
	Gender         Optional[string]  `json:"gender"`
	Age            Optional[float64] `json:"age"`
	HeightInches   Optional[float64] `json:"height_inches"`
	WeightLbs      Optional[float64] `json:"weight_lbs"`
	ActivityLevel  Optional[string]  `json:"activity_level"`
	DietPlan       Optional[string]  `json:"diet_plan"`
	CalorieTarget  Optional[float64] `json:"calorie_target"`
	ProteinTargetG Optional[float64] `json:"protein_target_g"`
	CarbsTargetG   Optional[float64] `json:"carbs_target_g"`
	FatTargetG     Optional[float64] `json:"fat_target_g"`
}

// Apply overlays the set fields of u onto p.
func (u ProfileUpdate) Apply(p UserProfile) UserProfile {
	overlay(&p.Gender, u.Gender)
	overlay(&p.Age, u.Age)
	overlay(&p.HeightInches, u.HeightInches)
	overlay(&p.WeightLbs, u.WeightLbs)
	overlay(&p.ActivityLevel, u.ActivityLevel)
	overlay(&p.DietPlan, u.DietPlan)
	overlay(&p.CalorieTarget, u.CalorieTarget)
	overlay(&p.ProteinTargetG, u.ProteinTargetG)
	overlay(&p.CarbsTargetG, u.CarbsTargetG)
	overlay(&p.FatTargetG, u.FatTargetG)
	return p
}

func overlay[T any](dst **T, o Optional[T]) {
	if o.Set {
		*dst = o.Value
	}
}
