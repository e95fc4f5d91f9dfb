package cooking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/timer"
)

func pasta() domain.Recipe {
	return domain.Recipe{
		ID:    "pasta",
		Title: "Pâtes carbonara",
		Steps: []domain.Step{
			{Instruction: "Faire bouillir l'eau", Duration: "10 min"},
			{Instruction: "Cuire les pâtes", Duration: "5 min"},
			{Instruction: "Mélanger avec les oeufs"},
		},
	}
}

func salad() domain.Recipe {
	return domain.Recipe{
		ID:    "salad",
		Title: "Salade",
		Steps: []domain.Step{
			{Instruction: "Laver la salade"},
			{Instruction: "Préparer la vinaigrette", Duration: "2 min"},
		},
	}
}

func cake() domain.Recipe {
	return domain.Recipe{
		ID:    "cake",
		Title: "Gâteau",
		Steps: []domain.Step{
			{Instruction: "Mélanger", Duration: "3 min"},
			{Instruction: "Cuire", Duration: "35 min"},
			{Instruction: "Laisser refroidir", Duration: "un moment"},
		},
	}
}

func TestStartCreatesRunningTimerForTimedFirstStep(t *testing.T) {
	store := timer.NewStore()

	m, err := Start(store, []domain.Recipe{pasta(), salad()})
	require.NoError(t, err)

	views := m.Snapshot()
	require.Len(t, views, 2)
	assert.Equal(t, 0, views[0].CurrentStep)
	assert.Equal(t, 0, views[1].CurrentStep)

	require.NotEmpty(t, views[0].Step.TimerID)
	tm, ok := store.Get(views[0].Step.TimerID)
	require.True(t, ok)
	assert.True(t, tm.Running)
	assert.Equal(t, 600, tm.TotalSec)
	assert.Equal(t, domain.CategoryStep, tm.Category)

	assert.Empty(t, views[1].Step.TimerID)
	assert.Equal(t, 1, store.Len())
}

func TestStartValidatesRecipes(t *testing.T) {
	store := timer.NewStore()

	_, err := Start(store, nil)
	assert.ErrorIs(t, err, ErrNoRecipes)

	_, err = Start(store, []domain.Recipe{{Title: "sans id", Steps: []domain.Step{{Instruction: "x"}}}})
	assert.ErrorIs(t, err, ErrRecipeRefMissing)

	_, err = Start(store, []domain.Recipe{{ID: "empty", Title: "vide"}})
	assert.ErrorIs(t, err, domain.ErrRecipeNoSteps)

	_, err = Start(store, []domain.Recipe{pasta(), pasta()})
	assert.ErrorIs(t, err, ErrDuplicateRecipe)

	assert.Equal(t, 0, store.Len(), "failed start must not leave timers behind")
}

func TestAdvanceCreatesTimerOnlyForTimedSteps(t *testing.T) {
	store := timer.NewStore()
	m, err := Start(store, []domain.Recipe{pasta()})
	require.NoError(t, err)

	v, err := m.Advance("pasta")
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)
	require.NotEmpty(t, v.Step.TimerID)
	tm, _ := store.Get(v.Step.TimerID)
	assert.Equal(t, 300, tm.TotalSec)
	assert.True(t, tm.Running)
	assert.Equal(t, 2, store.Len())

	v, err = m.Advance("pasta")
	require.NoError(t, err)
	assert.Equal(t, 2, v.CurrentStep)
	assert.Empty(t, v.Step.TimerID)
	assert.Equal(t, 2, store.Len())
}

func TestAdvanceStopsAtLastStep(t *testing.T) {
	store := timer.NewStore()
	m, _ := Start(store, []domain.Recipe{salad()})

	_, _ = m.Advance("salad")
	v, err := m.Advance("salad")
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)
	assert.Equal(t, 1, store.Len())
}

func TestUnparseableDurationCreatesNoTimer(t *testing.T) {
	store := timer.NewStore()
	m, _ := Start(store, []domain.Recipe{cake()})

	_, _ = m.Advance("cake")
	v, err := m.Advance("cake")
	require.NoError(t, err)

	assert.Equal(t, 2, v.CurrentStep)
	assert.Empty(t, v.Step.TimerID)
	assert.Equal(t, 2, store.Len())
}

func TestAdvanceDoesNotTouchOtherRecipes(t *testing.T) {
	store := timer.NewStore()
	m, _ := Start(store, []domain.Recipe{pasta(), cake()})
	before, _ := m.View("cake")

	_, err := m.Advance("pasta")
	require.NoError(t, err)

	after, _ := m.View("cake")
	assert.Equal(t, before.CurrentStep, after.CurrentStep)
	assert.Equal(t, before.StepTimers, after.StepTimers)
}

func TestPreviousIsPointerMoveOnly(t *testing.T) {
	store := timer.NewStore()
	m, _ := Start(store, []domain.Recipe{pasta()})
	_, _ = m.Advance("pasta")
	count := store.Len()

	v, err := m.Previous("pasta")
	require.NoError(t, err)
	assert.Equal(t, 0, v.CurrentStep)
	assert.Equal(t, count, store.Len())

	v, err = m.Previous("pasta")
	require.NoError(t, err)
	assert.Equal(t, 0, v.CurrentStep)
}

func TestRevisitingStepKeepsExistingTimer(t *testing.T) {
	store := timer.NewStore()
	m, _ := Start(store, []domain.Recipe{pasta()})
	first, _ := m.Advance("pasta")

	_, _ = m.Previous("pasta")
	again, err := m.Advance("pasta")
	require.NoError(t, err)

	assert.Equal(t, first.Step.TimerID, again.Step.TimerID)
	assert.Equal(t, 2, store.Len())
}

func TestStartStepTimerRecreatesDeletedTimer(t *testing.T) {
	store := timer.NewStore()
	m, _ := Start(store, []domain.Recipe{pasta()})
	v, _ := m.View("pasta")
	store.Remove(v.Step.TimerID)

	v, err := m.View("pasta")
	require.NoError(t, err)
	assert.Empty(t, v.Step.TimerID)

	v, err = m.StartStepTimer("pasta")
	require.NoError(t, err)
	assert.NotEmpty(t, v.Step.TimerID)
	assert.Equal(t, 1, store.Len())
}

func TestRemoveRecipeLeavesOthersUntouched(t *testing.T) {
	store := timer.NewStore()
	m, err := Start(store, []domain.Recipe{pasta(), salad(), cake()})
	require.NoError(t, err)

	_, _ = m.Advance("pasta")
	_, _ = m.Advance("salad")
	_, _ = m.Advance("cake")

	firstBefore, _ := m.View("pasta")
	thirdBefore, _ := m.View("cake")
	secondBefore, _ := m.View("salad")

	sum, err := m.Remove("salad")
	require.NoError(t, err)
	assert.Equal(t, "salad", sum.RecipeID)
	assert.True(t, sum.Finished)

	for _, id := range secondBefore.StepTimers {
		assert.False(t, store.Has(id), "removed recipe timer %s still present", id)
	}

	firstAfter, err := m.View("pasta")
	require.NoError(t, err)
	thirdAfter, err := m.View("cake")
	require.NoError(t, err)

	assert.Equal(t, firstBefore.CurrentStep, firstAfter.CurrentStep)
	assert.Equal(t, firstBefore.StepTimers, firstAfter.StepTimers)
	assert.Equal(t, thirdBefore.CurrentStep, thirdAfter.CurrentStep)
	assert.Equal(t, thirdBefore.StepTimers, thirdAfter.StepTimers)
	for _, id := range firstAfter.StepTimers {
		assert.True(t, store.Has(id))
	}

	views := m.Snapshot()
	require.Len(t, views, 2)
	assert.Equal(t, "pasta", views[0].RecipeID)
	assert.Equal(t, "cake", views[1].RecipeID)

	_, err = m.Remove("salad")
	assert.ErrorIs(t, err, ErrRecipeNotCooking)
}

func TestRemovedRecipeTimersStopTicking(t *testing.T) {
	store := timer.NewStore()
	d := timer.NewDriver(store, nil)
	m, _ := Start(store, []domain.Recipe{pasta(), cake()})

	d.Tick(context.Background())
	_, err := m.Remove("pasta")
	require.NoError(t, err)
	d.Tick(context.Background())

	v, _ := m.View("cake")
	tm, ok := store.Get(v.Step.TimerID)
	require.True(t, ok)
	assert.Equal(t, 178, tm.RemainingSec)
	assert.Equal(t, 1, store.Len())
}

func TestCloseTearsDownEverything(t *testing.T) {
	store := timer.NewStore()
	custom, _ := store.Add("Thé", 180, domain.CategoryCustom)
	m, _ := Start(store, []domain.Recipe{pasta(), salad()})
	_, _ = m.Advance("pasta")

	summaries := m.Close()
	require.Len(t, summaries, 2)
	assert.Equal(t, "pasta", summaries[0].RecipeID)
	assert.Equal(t, 2, summaries[0].StepsReached)
	assert.False(t, summaries[0].Finished)
	assert.Equal(t, 900, summaries[0].TimedSeconds)
	assert.Equal(t, "salad", summaries[1].RecipeID)

	assert.Equal(t, 1, store.Len(), "only the custom timer survives")
	assert.True(t, store.Has(custom.ID))
	assert.True(t, m.Closed())
	assert.Nil(t, m.Close())

	_, err := m.Advance("pasta")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Empty(t, m.Snapshot())
}

func TestApplyVoiceCommands(t *testing.T) {
	store := timer.NewStore()
	m, _ := Start(store, []domain.Recipe{pasta()})

	v, err := m.Apply("pasta", ParseCommand("Étape suivante"))
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)

	v, err = m.Apply("pasta", ParseCommand("répète"))
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentStep)

	v, err = m.Apply("pasta", ParseCommand("retour"))
	require.NoError(t, err)
	assert.Equal(t, 0, v.CurrentStep)

	_, err = m.Apply("pasta", ParseCommand("bonjour"))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
