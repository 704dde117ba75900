package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/macrolog/internal/model"
	"github.com/google/uuid"
)

type LogEntryStore struct {
	db DBTX
}

func NewLogEntryStore(db DBTX) *LogEntryStore {
	return &LogEntryStore{db: db}
}

// WithTx returns a LogEntryStore that runs its queries in tx.
func (s *LogEntryStore) WithTx(tx *sql.Tx) *LogEntryStore {
	return &LogEntryStore{db: tx}
}

// scanJoinedEntry scans a meal_log row LEFT JOINed with its food.
func scanJoinedEntry(scanner interface{ Scan(...any) error }) (*model.LogEntry, error) {
	var e model.LogEntry
	var (
		foodID, foodUserID, name, unit sql.NullString
		cal, protein, carbs, fat       sql.NullFloat64
		timesUsed                      sql.NullInt64
		foodCreated, foodUpdated       sql.NullTime
	)

	err := scanner.Scan(
		&e.ID, &e.UserID, &e.FoodLibraryID, &e.Servings, &e.LoggedAt, &e.CreatedAt,
		&foodID, &foodUserID, &name, &unit, &cal, &protein, &carbs, &fat,
		&timesUsed, &foodCreated, &foodUpdated,
	)
	if err != nil {
		return nil, err
	}

	if foodID.Valid {
		e.Food = &model.FoodItem{
			ID:                 foodID.String,
			UserID:             foodUserID.String,
			Name:               name.String,
			ServingUnit:        unit.String,
			CaloriesPerServing: cal.Float64,
			ProteinPerServing:  protein.Float64,
			CarbsPerServing:    carbs.Float64,
			FatPerServing:      fat.Float64,
			TimesUsed:          timesUsed.Int64,
			CreatedAt:          foodCreated.Time,
			UpdatedAt:          foodUpdated.Time,
		}
	}
	return &e, nil
}

const joinedEntrySelect = `SELECT m.id, m.user_id, m.food_library_id, m.servings, m.logged_at, m.created_at,
	f.id, f.user_id, f.name, f.serving_unit, f.calories_per_serving, f.protein_per_serving,
	f.carbs_per_serving, f.fat_per_serving, f.times_used, f.created_at, f.updated_at
	FROM meal_log m
	LEFT JOIN food_library f ON f.id = m.food_library_id`

// Create inserts a log entry and returns it joined with its food.
func (s *LogEntryStore) Create(ctx context.Context, userID, foodID string, servings float64, loggedAt string) (*model.LogEntry, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meal_log (id, user_id, food_library_id, servings, logged_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, foodID, servings, loggedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert log entry: %w", err)
	}
	return s.GetByID(ctx, userID, id)
}

func (s *LogEntryStore) GetByID(ctx context.Context, userID, id string) (*model.LogEntry, error) {
	row := s.db.QueryRowContext(ctx, joinedEntrySelect+` WHERE m.id = ? AND m.user_id = ?`, id, userID)
	e, err := scanJoinedEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get log entry: %w", err)
	}
	return e, nil
}

// ListByDate returns the user's entries for one date in insertion order.
func (s *LogEntryStore) ListByDate(ctx context.Context, userID, date string) ([]model.LogEntry, error) {
	return s.list(ctx,
		joinedEntrySelect+` WHERE m.user_id = ? AND m.logged_at = ? ORDER BY m.created_at ASC, m.rowid ASC`,
		userID, date,
	)
}

// ListRange returns the user's entries with start <= logged_at <= end.
func (s *LogEntryStore) ListRange(ctx context.Context, userID, start, end string) ([]model.LogEntry, error) {
	return s.list(ctx,
		joinedEntrySelect+` WHERE m.user_id = ? AND m.logged_at >= ? AND m.logged_at <= ? ORDER BY m.logged_at ASC, m.created_at ASC, m.rowid ASC`,
		userID, start, end,
	)
}

// ListByFood returns every entry of the user that references foodID.
func (s *LogEntryStore) ListByFood(ctx context.Context, userID, foodID string) ([]model.LogEntry, error) {
	return s.list(ctx,
		joinedEntrySelect+` WHERE m.user_id = ? AND m.food_library_id = ? ORDER BY m.created_at ASC, m.rowid ASC`,
		userID, foodID,
	)
}

func (s *LogEntryStore) list(ctx context.Context, query string, args ...any) ([]model.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		e, err := scanJoinedEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UpdateServings changes only the servings of an entry and returns the number
// of rows updated.
func (s *LogEntryStore) UpdateServings(ctx context.Context, userID, id string, servings float64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE meal_log SET servings = ? WHERE id = ? AND user_id = ?`,
		servings, id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("update servings: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *LogEntryStore) Delete(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM meal_log WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete log entry: %w", err)
	}
	return nil
}

// DeleteByFood removes every entry of the user that references foodID and
// returns the number deleted.
func (s *LogEntryStore) DeleteByFood(ctx context.Context, userID, foodID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM meal_log WHERE food_library_id = ? AND user_id = ?`,
		foodID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete log entries by food: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
