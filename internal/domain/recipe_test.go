package domain

import (
	"errors"
	"testing"
)

func TestNewRecipeAssignsID(t *testing.T) {
	r := NewRecipe("", "user-1", "  Tarte aux pommes ", []Step{{Instruction: "Préchauffer"}})

	if r.ID == "" {
		t.Fatalf("expected generated id")
	}
	if r.Title != "Tarte aux pommes" {
		t.Fatalf("title = %q", r.Title)
	}
	if r.CreatedAt.IsZero() || !r.CreatedAt.Equal(r.UpdatedAt) {
		t.Fatalf("timestamps not initialised: %v %v", r.CreatedAt, r.UpdatedAt)
	}

	fixed := NewRecipe("fixed", "user-1", "x", nil)
	if fixed.ID != "fixed" {
		t.Fatalf("id = %q want fixed", fixed.ID)
	}
}

func TestRecipeValidate(t *testing.T) {
	tests := []struct {
		name   string
		recipe Recipe
		err    error
	}{
		{name: "ok", recipe: Recipe{Title: "Soupe", Steps: []Step{{Instruction: "Mixer"}}}},
		{name: "missing title", recipe: Recipe{Steps: []Step{{Instruction: "Mixer"}}}, err: ErrRecipeTitleRequired},
		{name: "no steps", recipe: Recipe{Title: "Soupe"}, err: ErrRecipeNoSteps},
		{name: "blank instruction", recipe: Recipe{Title: "Soupe", Steps: []Step{{Instruction: " "}}}, err: ErrStepInstructionRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.recipe.Validate()
			if !errors.Is(err, tt.err) {
				t.Fatalf("Validate() = %v want %v", err, tt.err)
			}
		})
	}
}

func TestRecipeTimedSeconds(t *testing.T) {
	r := Recipe{Steps: []Step{
		{Instruction: "Bouillir l'eau", Duration: "5 min"},
		{Instruction: "Cuire les pâtes", Duration: "10 min"},
		{Instruction: "Égoutter"},
		{Instruction: "Servir", Duration: "bientôt"},
	}}

	if got := r.TimedSeconds(); got != 900 {
		t.Fatalf("TimedSeconds() = %d want 900", got)
	}
}

func TestStepSeconds(t *testing.T) {
	if _, ok := (Step{Instruction: "x"}).Seconds(); ok {
		t.Fatalf("step without duration should not parse")
	}
	sec, ok := (Step{Instruction: "x", Duration: "5 min"}).Seconds()
	if !ok || sec != 300 {
		t.Fatalf("Seconds() = %d, %v", sec, ok)
	}
}
