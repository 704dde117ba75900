package foodparse

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukerupert/macrolog/internal/apperr"
)

type fakeCompleter struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func TestParse(t *testing.T) {
	fc := &fakeCompleter{text: `{"name":"Egg","servings":2,"serving_unit":"1 large egg","calories_per_serving":78,"protein_per_serving":6,"carbs_per_serving":0.6,"fat_per_serving":5}`}
	p := NewParser(fc, slog.Default())

	food, err := p.Parse(context.Background(), "2 eggs")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if food.Name != "Egg" {
		t.Errorf("name = %q, want %q", food.Name, "Egg")
	}
	if food.Servings != 2 {
		t.Errorf("servings = %v, want 2", food.Servings)
	}
	if food.ServingUnit != "1 large egg" {
		t.Errorf("serving_unit = %q, want %q", food.ServingUnit, "1 large egg")
	}
	if food.CaloriesPerServing != 78 || food.ProteinPerServing != 6 || food.CarbsPerServing != 0.6 || food.FatPerServing != 5 {
		t.Errorf("macros = %+v", food)
	}

	if len(fc.prompts) != 1 {
		t.Fatalf("completer called %d times, want 1", len(fc.prompts))
	}
	if !strings.Contains(fc.prompts[0], `Input: "2 eggs"`) {
		t.Errorf("prompt does not embed input: %s", fc.prompts[0])
	}
}

func TestParseDefaults(t *testing.T) {
	fc := &fakeCompleter{text: `{"calories_per_serving": 95}`}
	p := NewParser(fc, slog.Default())

	food, err := p.Parse(context.Background(), "  an apple ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if food.Name != "an apple" {
		t.Errorf("name = %q, want input echoed", food.Name)
	}
	if food.Servings != 1 {
		t.Errorf("servings = %v, want 1", food.Servings)
	}
	if food.ServingUnit != "1 serving" {
		t.Errorf("serving_unit = %q, want %q", food.ServingUnit, "1 serving")
	}
	if food.CaloriesPerServing != 95 {
		t.Errorf("calories = %v, want 95", food.CaloriesPerServing)
	}
	if food.ProteinPerServing != 0 || food.CarbsPerServing != 0 || food.FatPerServing != 0 {
		t.Errorf("missing macros should be 0: %+v", food)
	}
}

func TestParseZeroServingsDefaultsToOne(t *testing.T) {
	food, err := Decode(`{"name":"Toast","servings":0,"serving_unit":""}`, "toast")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if food.Servings != 1 {
		t.Errorf("servings = %v, want 1", food.Servings)
	}
	if food.ServingUnit != "1 serving" {
		t.Errorf("serving_unit = %q, want default", food.ServingUnit)
	}
}

func TestParseDoesNotRangeCheck(t *testing.T) {
	food, err := Decode(`{"name":"Mystery","calories_per_serving":-10}`, "mystery")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if food.CaloriesPerServing != -10 {
		t.Errorf("calories = %v, want -10 passed through", food.CaloriesPerServing)
	}
}

func TestParseUpstreamFailure(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection reset")}
	p := NewParser(fc, slog.Default())

	_, err := p.Parse(context.Background(), "2 eggs")
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if errors.Is(err, apperr.ErrParse) {
		t.Error("upstream failure must not be a parse error")
	}
}

func TestParseMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"prose", "Sure! Here is the nutrition info for eggs."},
		{"markdown fence", "```json\n{\"name\":\"Egg\"}\n```"},
		{"array", `[{"name":"Egg"}]`},
		{"truncated", `{"name":"Egg","servings":`},
		{"wrong type", `{"name":"Egg","calories_per_serving":"78"}`},
		{"trailing text", `{"name":"Egg"} hope this helps`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(&fakeCompleter{text: tt.text}, slog.Default())
			_, err := p.Parse(context.Background(), "2 eggs")
			if !errors.Is(err, apperr.ErrParse) {
				t.Errorf("err = %v, want ErrParse", err)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	fc := &fakeCompleter{}
	p := NewParser(fc, slog.Default())

	_, err := p.Parse(context.Background(), "   ")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(fc.prompts) != 0 {
		t.Error("completer should not be called for empty input")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("bowl of oatmeal")
	for _, want := range []string{`Input: "bowl of oatmeal"`, "calories_per_serving", `"2 eggs" -> name: "Egg"`, "Return only the JSON object."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
