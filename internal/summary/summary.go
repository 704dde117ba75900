// Package summary aggregates logged entries into daily totals and range
// averages.
package summary

import (
	"sort"

	"github.com/dukerupert/macrolog/internal/model"
)

// DailyTotals sums macros x servings over entries. Entries without a resolved
// food are skipped.
func DailyTotals(entries []model.LogEntry) model.MacroTotals {
	var t model.MacroTotals
	for _, e := range entries {
		if e.Food == nil {
			continue
		}
		t.Calories += e.Food.CaloriesPerServing * e.Servings
		t.Protein += e.Food.ProteinPerServing * e.Servings
		t.Carbs += e.Food.CarbsPerServing * e.Servings
		t.Fat += e.Food.FatPerServing * e.Servings
	}
	return t
}

// RangeSummary groups entries by log date and averages each macro over the
// days that have at least one entry, not over the whole range. Entries are
// assumed to already fall within [start, end].
func RangeSummary(entries []model.LogEntry, start, end string) model.RangeSummary {
	byDate := make(map[string][]model.LogEntry)
	for _, e := range entries {
		byDate[e.LoggedAt] = append(byDate[e.LoggedAt], e)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	s := model.RangeSummary{
		StartDate:  start,
		EndDate:    end,
		DaysLogged: len(dates),
		DailyData:  make([]model.DailyData, 0, len(dates)),
	}

	var sum model.MacroTotals
	for _, d := range dates {
		t := DailyTotals(byDate[d])
		s.DailyData = append(s.DailyData, model.DailyData{Date: d, MacroTotals: t})
		sum.Calories += t.Calories
		sum.Protein += t.Protein
		sum.Carbs += t.Carbs
		sum.Fat += t.Fat
	}

	if n := float64(s.DaysLogged); n > 0 {
		s.AvgCalories = sum.Calories / n
		s.AvgProtein = sum.Protein / n
		s.AvgCarbs = sum.Carbs / n
		s.AvgFat = sum.Fat / n
	}
	return s
}
