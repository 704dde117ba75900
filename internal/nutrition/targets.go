// Package nutrition computes daily energy expenditure and macro targets.
//
// It is the only implementation of the formula; the profile service and the
// preview endpoint both call it so stored and previewed targets never differ.
package nutrition

import (
	"fmt"
	"math"
)

const (
	lbsToKg    = 0.453592
	inchesToCm = 2.54

	maleSexTerm   = 5.0
	femaleSexTerm = -161.0

	loseAdjustment = -500
	gainAdjustment = 300

	proteinPerLb   = 0.9
	fatShare       = 0.28
	kcalPerGramFat = 9
	kcalPerGram    = 4
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

type ActivityLevel string

const (
	Sedentary  ActivityLevel = "sedentary"
	Light      ActivityLevel = "light"
	Moderate   ActivityLevel = "moderate"
	Active     ActivityLevel = "active"
	VeryActive ActivityLevel = "very_active"
)

// activityMultipliers maps each activity level to its TDEE multiplier.
var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:  1.2,
	Light:      1.375,
	Moderate:   1.55,
	Active:     1.725,
	VeryActive: 1.9,
}

type Goal string

const (
	Maintain Goal = "maintain"
	Lose     Goal = "lose"
	Gain     Goal = "gain"
)

// OtherPolicy selects the BMR sex term used for Gender "other".
type OtherPolicy string

const (
	OtherAsFemale  OtherPolicy = "female"
	OtherAsMale    OtherPolicy = "male"
	OtherAsAverage OtherPolicy = "average"
)

func (g Gender) Valid() bool {
	return g == Male || g == Female || g == Other
}

func (a ActivityLevel) Valid() bool {
	_, ok := activityMultipliers[a]
	return ok
}

func (g Goal) Valid() bool {
	return g == Maintain || g == Lose || g == Gain
}

func (p OtherPolicy) Valid() bool {
	return p == OtherAsFemale || p == OtherAsMale || p == OtherAsAverage
}

// ParseOtherPolicy returns the policy named by s. An empty string selects
// OtherAsFemale.
func ParseOtherPolicy(s string) (OtherPolicy, error) {
	if s == "" {
		return OtherAsFemale, nil
	}
	p := OtherPolicy(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown other-sex formula %q (want female, male or average)", s)
	}
	return p, nil
}

func (p OtherPolicy) sexTerm(g Gender) float64 {
	switch g {
	case Male:
		return maleSexTerm
	case Other:
		switch p {
		case OtherAsMale:
			return maleSexTerm
		case OtherAsAverage:
			return (maleSexTerm + femaleSexTerm) / 2
		}
	}
	return femaleSexTerm
}

// MacroTargets is a daily calorie target with protein, carb and fat grams.
type MacroTargets struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// ComputeTDEE estimates total daily energy expenditure with the Mifflin-St Jeor
// equation. An unknown activity level falls back to the sedentary multiplier.
func ComputeTDEE(policy OtherPolicy, gender Gender, age, heightInches, weightLbs float64, activity ActivityLevel) int {
	weightKg := weightLbs * lbsToKg
	heightCm := heightInches * inchesToCm

	bmr := 10*weightKg + 6.25*heightCm - 5*age + policy.sexTerm(gender)

	mult, ok := activityMultipliers[activity]
	if !ok {
		mult = activityMultipliers[Sedentary]
	}
	return int(round(bmr * mult))
}

// ComputeMacroTargets splits a goal-adjusted calorie budget into macros.
// Carbs take the remainder after protein and fat and are not floored, so they
// can be negative for very low budgets.
func ComputeMacroTargets(tdee int, goal Goal, weightLbs float64) MacroTargets {
	target := float64(tdee)
	switch goal {
	case Lose:
		target += loseAdjustment
	case Gain:
		target += gainAdjustment
	}

	protein := round(weightLbs * proteinPerLb)

	// fatCalories stays unrounded for the carb remainder.
	fatCalories := target * fatShare
	fat := round(fatCalories / kcalPerGramFat)

	carbCalories := target - protein*kcalPerGram - fatCalories
	carbs := round(carbCalories / kcalPerGram)

	return MacroTargets{
		Calories: int(round(target)),
		Protein:  int(protein),
		Carbs:    int(carbs),
		Fat:      int(fat),
	}
}

// BodyStats is the complete set of inputs for a target calculation.
type BodyStats struct {
	Gender        Gender        `json:"gender"`
	Age           float64       `json:"age"`
	HeightInches  float64       `json:"height_inches"`
	WeightLbs     float64       `json:"weight_lbs"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	DietPlan      Goal          `json:"diet_plan"`
}

// Validate reports the first invalid field of s.
func (s BodyStats) Validate() error {
	switch {
	case !s.Gender.Valid():
		return fmt.Errorf("gender must be male, female, or other")
	case s.Age <= 0:
		return fmt.Errorf("age must be positive")
	case s.HeightInches <= 0:
		return fmt.Errorf("height_inches must be positive")
	case s.WeightLbs <= 0:
		return fmt.Errorf("weight_lbs must be positive")
	case !s.ActivityLevel.Valid():
		return fmt.Errorf("activity_level must be sedentary, light, moderate, active, or very_active")
	case !s.DietPlan.Valid():
		return fmt.Errorf("diet_plan must be maintain, lose, or gain")
	}
	return nil
}

// Result is the output of Calculate.
type Result struct {
	TDEE    int          `json:"tdee"`
	Targets MacroTargets `json:"targets"`
}

// Calculate validates s and computes its TDEE and macro targets.
func Calculate(policy OtherPolicy, s BodyStats) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	tdee := ComputeTDEE(policy, s.Gender, s.Age, s.HeightInches, s.WeightLbs, s.ActivityLevel)
	return Result{
		TDEE:    tdee,
		Targets: ComputeMacroTargets(tdee, s.DietPlan, s.WeightLbs),
	}, nil
}

// round rounds half toward positive infinity, so -2.5 becomes -2 and 2.5
// becomes 3. The stored reference targets were produced this way.
func round(x float64) float64 {
	f := math.Floor(x)
	if x-f >= 0.5 {
		return f + 1
	}
	return f
}
