package recipefile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustalya/gustalya/internal/domain"
)

const twoRecipes = `title: Pâtes carbonara
servings: 4
ingredients:
  - name: spaghetti
    quantity: "400"
    unit: g
steps:
  - instruction: Cuire les pâtes
    duration: 10 min
  - instruction: Mélanger
---
---
id: riz-au-lait
title: Riz au lait
steps:
  - instruction: Cuire le riz
    duration: 35 min
`

func TestParseMultipleDocuments(t *testing.T) {
	recipes, err := Parse([]byte(twoRecipes))
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	carbonara := recipes[0]
	assert.Equal(t, "Pâtes carbonara", carbonara.Title)
	assert.NotEmpty(t, carbonara.ID)
	assert.Equal(t, 4, carbonara.Servings)
	require.Len(t, carbonara.Ingredients, 1)
	assert.Equal(t, "g", carbonara.Ingredients[0].Unit)
	require.Len(t, carbonara.Steps, 2)
	sec, ok := carbonara.Steps[0].Seconds()
	assert.True(t, ok)
	assert.Equal(t, 600, sec)
	assert.False(t, carbonara.CreatedAt.IsZero())

	assert.Equal(t, "riz-au-lait", recipes[1].ID)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "no steps", input: "title: Vide\n", want: domain.ErrRecipeNoSteps},
		{name: "no title", input: "steps:\n  - instruction: x\n", want: domain.ErrRecipeTitleRequired},
		{name: "blank instruction", input: "title: a\nsteps:\n  - duration: 5 min\n", want: domain.ErrStepInstructionRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, 1, le.Document)
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("title: a\ntemps: 10\nsteps:\n  - instruction: x\n"))
	require.Error(t, err)
}

func TestEncodeRoundTripsThroughFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "recettes.yaml")

	recipe := domain.NewRecipe("omelette", "", "Omelette", []domain.Step{
		{Instruction: "Battre les oeufs"},
		{Instruction: "Cuire", Duration: "3 min"},
	})
	require.NoError(t, SaveFile(path, []domain.Recipe{*recipe}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "createdAt")

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, recipe.ID, loaded[0].ID)
	assert.Equal(t, recipe.Steps, loaded[0].Steps)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []domain.Recipe{*domain.NewRecipe("b", "", "B", []domain.Step{{Instruction: "b"}})}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(twoRecipes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not yaml: ["), 0o644))

	recipes, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "Pâtes carbonara", recipes[0].Title)
	assert.Equal(t, "B", recipes[2].Title)
}

func TestLoadFileErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: [unterminated"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
