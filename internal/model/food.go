package model

import (
	"strings"
	"time"
)

type FoodItem struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	ServingUnit        string    `json:"serving_unit"`
	CaloriesPerServing float64   `json:"calories_per_serving"`
	ProteinPerServing  float64   `json:"protein_per_serving"`
	CarbsPerServing    float64   `json:"carbs_per_serving"`
	FatPerServing      float64   `json:"fat_per_serving"`
	TimesUsed          int64     `json:"times_used"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NameKey normalizes a food name for per-user deduplication.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FoodPatch holds the fields of a partial food update. Nil fields are left
// unchanged.
type FoodPatch struct {
	Name               *string  `json:"name"`
	ServingUnit        *string  `json:"serving_unit"`
	CaloriesPerServing *float64 `json:"calories_per_serving"`
	ProteinPerServing  *float64 `json:"protein_per_serving"`
	CarbsPerServing    *float64 `json:"carbs_per_serving"`
	FatPerServing      *float64 `json:"fat_per_serving"`
}

// Apply returns f with the patch fields overlaid.
func (p FoodPatch) Apply(f FoodItem) FoodItem {
	if p.Name != nil {
		f.Name = strings.TrimSpace(*p.Name)
	}
	if p.ServingUnit != nil {
		f.ServingUnit = strings.TrimSpace(*p.ServingUnit)
	}
	if p.CaloriesPerServing != nil {
		f.CaloriesPerServing = *p.CaloriesPerServing
	}
	if p.ProteinPerServing != nil {
		f.ProteinPerServing = *p.ProteinPerServing
	}
	if p.CarbsPerServing != nil {
		f.CarbsPerServing = *p.CarbsPerServing
	}
	if p.FatPerServing != nil {
		f.FatPerServing = *p.FatPerServing
	}
	return f
}

// ParsedFood is a structured food description produced from free text. It is
// never stored directly.
type ParsedFood struct {
	Name               string  `json:"name"`
	Servings           float64 `json:"servings"`
	ServingUnit        string  `json:"serving_unit"`
	CaloriesPerServing float64 `json:"calories_per_serving"`
	ProteinPerServing  float64 `json:"protein_per_serving"`
	CarbsPerServing    float64 `json:"carbs_per_serving"`
	FatPerServing      float64 `json:"fat_per_serving"`
}
