package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/macrolog/internal/model"
	"github.com/google/uuid"
)

type FoodStore struct {
	db DBTX
}

func NewFoodStore(db DBTX) *FoodStore {
	return &FoodStore{db: db}
}

// WithTx returns a FoodStore that runs its queries in tx.
func (s *FoodStore) WithTx(tx *sql.Tx) *FoodStore {
	return &FoodStore{db: tx}
}

func scanFood(scanner interface{ Scan(...any) error }) (*model.FoodItem, error) {
	var f model.FoodItem
	err := scanner.Scan(
		&f.ID, &f.UserID, &f.Name, &f.ServingUnit,
		&f.CaloriesPerServing, &f.ProteinPerServing, &f.CarbsPerServing, &f.FatPerServing,
		&f.TimesUsed, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const foodCols = `id, user_id, name, serving_unit, calories_per_serving, protein_per_serving, carbs_per_serving, fat_per_serving, times_used, created_at, updated_at`

// Create inserts a food with times_used = 1; the insert is its first use.
func (s *FoodStore) Create(ctx context.Context, userID string, p model.ParsedFood) (*model.FoodItem, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO food_library (id, user_id, name, name_key, serving_unit, calories_per_serving, protein_per_serving, carbs_per_serving, fat_per_serving, times_used)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		id, userID, p.Name, model.NameKey(p.Name), p.ServingUnit,
		p.CaloriesPerServing, p.ProteinPerServing, p.CarbsPerServing, p.FatPerServing,
	)
	if err != nil {
		return nil, fmt.Errorf("insert food: %w", err)
	}
	return s.GetByID(ctx, userID, id)
}

func (s *FoodStore) GetByID(ctx context.Context, userID, id string) (*model.FoodItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+foodCols+` FROM food_library WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	f, err := scanFood(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get food: %w", err)
	}
	return f, nil
}

// GetByName finds the user's food whose name matches case-insensitively.
// It returns nil, nil when there is none.
func (s *FoodStore) GetByName(ctx context.Context, userID, name string) (*model.FoodItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+foodCols+` FROM food_library WHERE user_id = ? AND name_key = ?`,
		userID, model.NameKey(name),
	)
	f, err := scanFood(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get food by name: %w", err)
	}
	return f, nil
}

// IncrementUsage adds one to times_used.
func (s *FoodStore) IncrementUsage(ctx context.Context, userID, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE food_library SET times_used = times_used + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("increment food usage: %w", err)
	}
	return nil
}

// List returns the user's foods, most used first.
func (s *FoodStore) List(ctx context.Context, userID string) ([]model.FoodItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+foodCols+` FROM food_library WHERE user_id = ? ORDER BY times_used DESC, name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	var foods []model.FoodItem
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		foods = append(foods, *f)
	}
	return foods, rows.Err()
}

// Update writes the editable fields of f. Usage count and ownership are not
// changed.
func (s *FoodStore) Update(ctx context.Context, f model.FoodItem) (*model.FoodItem, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE food_library SET name = ?, name_key = ?, serving_unit = ?,
		   calories_per_serving = ?, protein_per_serving = ?, carbs_per_serving = ?, fat_per_serving = ?,
		   updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		f.Name, model.NameKey(f.Name), f.ServingUnit,
		f.CaloriesPerServing, f.ProteinPerServing, f.CarbsPerServing, f.FatPerServing,
		f.ID, f.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update food: %w", err)
	}
	return s.GetByID(ctx, f.UserID, f.ID)
}

// Delete removes the food and returns the number of rows deleted. Log entries
// referencing it must be deleted first.
func (s *FoodStore) Delete(ctx context.Context, userID, id string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM food_library WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete food: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
