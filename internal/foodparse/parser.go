// Package foodparse turns a free-text food description into structured
// nutrition data using a language model.
package foodparse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/macrolog/internal/apperr"
	"github.com/dukerupert/macrolog/internal/model"
)

const (
	defaultServings    = 1
	defaultServingUnit = "1 serving"
)

// Completer sends a prompt to a language model and returns the text of the
// first segment of a single, non-streamed response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Parser parses food descriptions through a Completer.
type Parser struct {
	completer Completer
	logger    *slog.Logger
}

func NewParser(c Completer, logger *slog.Logger) *Parser {
	return &Parser{completer: c, logger: logger}
}

// response is the JSON shape requested in the prompt. Pointers distinguish
// missing fields from zeros.
type response struct {
	Name               *string  `json:"name"`
	Servings           *float64 `json:"servings"`
	ServingUnit        *string  `json:"serving_unit"`
	CaloriesPerServing *float64 `json:"calories_per_serving"`
	ProteinPerServing  *float64 `json:"protein_per_serving"`
	CarbsPerServing    *float64 `json:"carbs_per_serving"`
	FatPerServing      *float64 `json:"fat_per_serving"`
}

// Parse returns the structured food for input. Completer failures are
// ErrUpstreamUnavailable; responses that are not the expected JSON object are
// ErrParse. Macro values are not range-checked.
func (p *Parser) Parse(ctx context.Context, input string) (*model.ParsedFood, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, apperr.Validation("input is required")
	}

	text, err := p.completer.Complete(ctx, BuildPrompt(input))
	if err != nil {
		return nil, apperr.Upstream("complete food prompt", err)
	}

	food, err := Decode(text, input)
	if err != nil {
		p.logger.Warn("unparseable model response", "input", input, "response", text, "error", err)
		return nil, apperr.Parse("decode food response", err)
	}
	return food, nil
}

// Decode parses a model response and applies defaults: the input as name,
// one serving, "1 serving" as unit and zero for missing macros.
func Decode(text, input string) (*model.ParsedFood, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("response is not a JSON object")
	}

	var r response
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON object")
	}

	food := &model.ParsedFood{
		Name:               input,
		Servings:           defaultServings,
		ServingUnit:        defaultServingUnit,
		CaloriesPerServing: valueOr(r.CaloriesPerServing, 0),
		ProteinPerServing:  valueOr(r.ProteinPerServing, 0),
		CarbsPerServing:    valueOr(r.CarbsPerServing, 0),
		FatPerServing:      valueOr(r.FatPerServing, 0),
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) != "" {
		food.Name = strings.TrimSpace(*r.Name)
	}
	if r.Servings != nil && *r.Servings != 0 {
		food.Servings = *r.Servings
	}
	if r.ServingUnit != nil && strings.TrimSpace(*r.ServingUnit) != "" {
		food.ServingUnit = strings.TrimSpace(*r.ServingUnit)
	}
	return food, nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
