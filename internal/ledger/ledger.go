// Package ledger reconciles parsed foods into a user's food library and meal
// log.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dukerupert/macrolog/internal/apperr"
	"github.com/dukerupert/macrolog/internal/model"
	"github.com/dukerupert/macrolog/internal/store"
	"github.com/dukerupert/macrolog/internal/summary"
)

// FoodParser turns free text into a structured food.
type FoodParser interface {
	Parse(ctx context.Context, input string) (*model.ParsedFood, error)
}

type Ledger struct {
	db      *sql.DB
	foods   *store.FoodStore
	entries *store.LogEntryStore
	parser  FoodParser
	locks   *userLocks
	logger  *slog.Logger
}

func New(db *sql.DB, parser FoodParser, logger *slog.Logger) *Ledger {
	return &Ledger{
		db:      db,
		foods:   store.NewFoodStore(db),
		entries: store.NewLogEntryStore(db),
		parser:  parser,
		locks:   newUserLocks(),
		logger:  logger,
	}
}

// Today returns the current UTC calendar date.
func Today() string {
	return time.Now().UTC().Format(model.DateLayout)
}

// ValidateDate checks that s is a YYYY-MM-DD calendar date.
func ValidateDate(field, s string) error {
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return apperr.Validation("%s must be a date in YYYY-MM-DD format", field)
	}
	return nil
}

// inTx runs fn with stores bound to one transaction, committing if fn returns
// nil and rolling back otherwise.
func (l *Ledger) inTx(ctx context.Context, op string, fn func(foods *store.FoodStore, entries *store.LogEntryStore) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(l.foods.WithTx(tx), l.entries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Persistence(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// ParseAndLog parses input and logs the result. Nothing is written when
// parsing fails.
func (l *Ledger) ParseAndLog(ctx context.Context, userID, input, logDate string) (*model.LogEntry, error) {
	if err := ValidateDate("logged_at", logDate); err != nil {
		return nil, err
	}
	parsed, err := l.parser.Parse(ctx, input)
	if err != nil {
		return nil, err
	}
	return l.LogFood(ctx, userID, *parsed, logDate)
}

// LogFood resolves parsed against the user's library by case-insensitive
// name, creating the food with times_used = 1 or incrementing an existing
// one by exactly 1, and appends a log entry for logDate. Both writes commit
// together.
func (l *Ledger) LogFood(ctx context.Context, userID string, parsed model.ParsedFood, logDate string) (*model.LogEntry, error) {
	parsed.Name = strings.TrimSpace(parsed.Name)
	if err := validateParsed(parsed); err != nil {
		return nil, err
	}
	if err := ValidateDate("logged_at", logDate); err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(userID)
	defer unlock()

	var created *model.LogEntry
	err := l.inTx(ctx, "log food", func(foods *store.FoodStore, entries *store.LogEntryStore) error {
		existing, err := foods.GetByName(ctx, userID, parsed.Name)
		if err != nil {
			return apperr.Persistence("look up food", err)
		}

		var foodID string
		if existing != nil {
			if err := foods.IncrementUsage(ctx, userID, existing.ID); err != nil {
				return apperr.Persistence("increment food usage", err)
			}
			foodID = existing.ID
		} else {
			food, err := foods.Create(ctx, userID, parsed)
			if err != nil {
				return apperr.Persistence("create food", err)
			}
			if food == nil {
				return apperr.Persistence("create food", errors.New("created food not found"))
			}
			foodID = food.ID
		}

		entry, err := entries.Create(ctx, userID, foodID, parsed.Servings, logDate)
		if err != nil {
			return apperr.Persistence("create log entry", err)
		}
		created = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("food logged", "user_id", userID, "entry_id", created.ID, "food_id", created.FoodLibraryID, "date", logDate)
	return created, nil
}

func validateParsed(p model.ParsedFood) error {
	if p.Name == "" {
		return apperr.Validation("food name is required")
	}
	if !positive(p.Servings) {
		return apperr.Validation("servings must be greater than 0")
	}
	macros := []struct {
		name  string
		value float64
	}{
		{"calories_per_serving", p.CaloriesPerServing},
		{"protein_per_serving", p.ProteinPerServing},
		{"carbs_per_serving", p.CarbsPerServing},
		{"fat_per_serving", p.FatPerServing},
	}
	for _, m := range macros {
		if !nonNegative(m.value) {
			return apperr.Validation("%s must not be negative", m.name)
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

// UpdateServings changes an entry's servings. The referenced food and its
// usage count are not touched.
func (l *Ledger) UpdateServings(ctx context.Context, entryID, userID string, servings float64) (*model.LogEntry, error) {
	if !positive(servings) {
		return nil, apperr.Validation("servings must be greater than 0")
	}

	n, err := l.entries.UpdateServings(ctx, userID, entryID, servings)
	if err != nil {
		return nil, apperr.Persistence("update servings", err)
	}
	if n == 0 {
		return nil, apperr.NotFound("log entry")
	}

	entry, err := l.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, apperr.Persistence("get log entry", err)
	}
	if entry == nil {
		return nil, apperr.NotFound("log entry")
	}
	return entry, nil
}

// GetEntry returns one of the user's entries joined with its food.
func (l *Ledger) GetEntry(ctx context.Context, entryID, userID string) (*model.LogEntry, error) {
	entry, err := l.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, apperr.Persistence("get log entry", err)
	}
	if entry == nil {
		return nil, apperr.NotFound("log entry")
	}
	return entry, nil
}

// DeleteEntry removes an entry. Deleting an absent entry is not an error.
func (l *Ledger) DeleteEntry(ctx context.Context, entryID, userID string) error {
	if err := l.entries.Delete(ctx, userID, entryID); err != nil {
		return apperr.Persistence("delete log entry", err)
	}
	return nil
}

// DeleteFood removes every log entry referencing the food, then the food, in
// one transaction. Deleting an absent food is not an error.
func (l *Ledger) DeleteFood(ctx context.Context, foodID, userID string) error {
	unlock := l.locks.Lock(userID)
	defer unlock()

	var removedEntries int64
	err := l.inTx(ctx, "delete food", func(foods *store.FoodStore, entries *store.LogEntryStore) error {
		n, err := entries.DeleteByFood(ctx, userID, foodID)
		if err != nil {
			return apperr.Persistence("delete food entries", err)
		}
		removedEntries = n
		if _, err := foods.Delete(ctx, userID, foodID); err != nil {
			return apperr.Persistence("delete food", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("food deleted", "user_id", userID, "food_id", foodID, "entries_removed", removedEntries)
	return nil
}

// UpdateFood applies a partial edit to one of the user's foods.
func (l *Ledger) UpdateFood(ctx context.Context, foodID, userID string, patch model.FoodPatch) (*model.FoodItem, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(userID)
	defer unlock()

	var updated *model.FoodItem
	err := l.inTx(ctx, "update food", func(foods *store.FoodStore, _ *store.LogEntryStore) error {
		existing, err := foods.GetByID(ctx, userID, foodID)
		if err != nil {
			return apperr.Persistence("get food", err)
		}
		if existing == nil {
			return apperr.NotFound("food")
		}

		next := patch.Apply(*existing)
		if model.NameKey(next.Name) != model.NameKey(existing.Name) {
			clash, err := foods.GetByName(ctx, userID, next.Name)
			if err != nil {
				return apperr.Persistence("look up food", err)
			}
			if clash != nil {
				return apperr.Validation("a food named %q already exists", clash.Name)
			}
		}

		updated, err = foods.Update(ctx, next)
		if err != nil {
			return apperr.Persistence("update food", err)
		}
		if updated == nil {
			return apperr.NotFound("food")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func validatePatch(p model.FoodPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.Validation("name must not be empty")
	}
	if p.ServingUnit != nil && strings.TrimSpace(*p.ServingUnit) == "" {
		return apperr.Validation("serving_unit must not be empty")
	}
	macros := []struct {
		name  string
		value *float64
	}{
		{"calories_per_serving", p.CaloriesPerServing},
		{"protein_per_serving", p.ProteinPerServing},
		{"carbs_per_serving", p.CarbsPerServing},
		{"fat_per_serving", p.FatPerServing},
	}
	for _, m := range macros {
		if m.value != nil && !nonNegative(*m.value) {
			return apperr.Validation("%s must not be negative", m.name)
		}
	}
	return nil
}

// ListFoods returns the user's library, most used first.
func (l *Ledger) ListFoods(ctx context.Context, userID string) ([]model.FoodItem, error) {
	foods, err := l.foods.List(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("list foods", err)
	}
	if foods == nil {
		foods = []model.FoodItem{}
	}
	return foods, nil
}

// DayLog returns the user's entries for date with their totals.
func (l *Ledger) DayLog(ctx context.Context, userID, date string) (*model.DailyLog, error) {
	if err := ValidateDate("date", date); err != nil {
		return nil, err
	}
	entries, err := l.entries.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, apperr.Persistence("list log entries", err)
	}
	if entries == nil {
		entries = []model.LogEntry{}
	}
	return &model.DailyLog{Entries: entries, Totals: summary.DailyTotals(entries)}, nil
}

// Summary aggregates the user's entries between start and end inclusive.
func (l *Ledger) Summary(ctx context.Context, userID, start, end string) (*model.RangeSummary, error) {
	if start == "" || end == "" {
		return nil, apperr.Validation("start_date and end_date are required")
	}
	if err := ValidateDate("start_date", start); err != nil {
		return nil, err
	}
	if err := ValidateDate("end_date", end); err != nil {
		return nil, err
	}
	if start > end {
		return nil, apperr.Validation("start_date must not be after end_date")
	}

	entries, err := l.entries.ListRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperr.Persistence("list log entries", err)
	}
	s := summary.RangeSummary(entries, start, end)
	return &s, nil
}
