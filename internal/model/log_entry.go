package model

import "time"

// DateLayout is the calendar-date format of LogEntry.LoggedAt.
const DateLayout = "2006-01-02"

type LogEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FoodLibraryID string    `json:"food_library_id"`
	Servings      float64   `json:"servings"`
	LoggedAt      string    `json:"logged_at"`
	CreatedAt     time.Time `json:"created_at"`
	Food          *FoodItem `json:"food,omitempty"`
}

// MacroTotals are summed calories and macro grams.
type MacroTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// DailyLog is one day's entries with their totals.
type DailyLog struct {
	Entries []LogEntry  `json:"entries"`
	Totals  MacroTotals `json:"totals"`
}

type DailyData struct {
	Date string `json:"date"`
	MacroTotals
}

type RangeSummary struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	DaysLogged  int         `json:"days_logged"`
	AvgCalories float64     `json:"avg_calories"`
	AvgProtein  float64     `json:"avg_protein"`
	AvgCarbs    float64     `json:"avg_carbs"`
	AvgFat      float64     `json:"avg_fat"`
	DailyData   []DailyData `json:"daily_data"`
}
