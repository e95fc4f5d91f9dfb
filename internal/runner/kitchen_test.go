package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gustalya/gustalya/internal/cooking"
	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/runner"
)

func openKitchen(t *testing.T, opts runner.Options) *runner.Kitchen {
	t.Helper()
	m := runner.NewManager(opts)
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	k, err := m.Open("", "alice")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return k
}

func TestKitchen_TimerLifecycle(t *testing.T) {
	k := openKitchen(t, runner.Options{})

	tm, err := k.AddTimer("Riz", 1080, domain.CategoryRice)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tm.Running {
		t.Fatalf("custom timers start stopped")
	}

	_ = k.ToggleTimer(tm.ID)
	got, _ := k.Timer(tm.ID)
	if !got.Running {
		t.Fatalf("expected running after toggle")
	}

	_ = k.ResetTimer(tm.ID)
	got, _ = k.Timer(tm.ID)
	if got.Running || got.RemainingSec != 1080 {
		t.Fatalf("unexpected timer after reset: %+v", got)
	}

	_ = k.RemoveTimer(tm.ID)
	if len(k.Timers()) != 0 {
		t.Fatalf("expected timer removed")
	}

	_, _ = k.AddTimer("a", 10, "")
	_, _ = k.AddTimer("b", 10, "")
	_ = k.ClearTimers()
	if len(k.Timers()) != 0 {
		t.Fatalf("expected timers cleared")
	}
}

func TestKitchen_CookTwice(t *testing.T) {
	k := openKitchen(t, runner.Options{})

	if _, err := k.Cook([]domain.Recipe{soup()}); err != nil {
		t.Fatalf("cook: %v", err)
	}
	if _, err := k.Cook([]domain.Recipe{soup()}); !errors.Is(err, runner.ErrAlreadyCooking) {
		t.Fatalf("expected ErrAlreadyCooking, got %v", err)
	}
}

func TestKitchen_StepsRequireCooking(t *testing.T) {
	k := openKitchen(t, runner.Options{})

	if _, err := k.Advance("soup"); !errors.Is(err, runner.ErrNotCooking) {
		t.Fatalf("expected ErrNotCooking, got %v", err)
	}
	if got := k.Recipes(); len(got) != 0 {
		t.Fatalf("expected no recipes, got %v", got)
	}
}

func TestKitchen_VoiceCommand(t *testing.T) {
	k := openKitchen(t, runner.Options{})
	if _, err := k.Cook([]domain.Recipe{soup()}); err != nil {
		t.Fatalf("cook: %v", err)
	}

	view, err := k.Voice("soup", "étape suivante")
	if err != nil {
		t.Fatalf("voice: %v", err)
	}
	if view.CurrentStep != 1 || view.Step.TimerID == "" {
		t.Fatalf("unexpected view: %+v", view)
	}

	if _, err := k.Voice("soup", "chante une chanson"); !errors.Is(err, cooking.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestKitchen_SubscribeReceivesEvents(t *testing.T) {
	k := openKitchen(t, runner.Options{TickInterval: 2 * time.Millisecond})
	events, unsubscribe := k.Subscribe()
	defer unsubscribe()

	tm, _ := k.AddTimer("Oeuf", 1, domain.CategoryEgg)
	_ = k.ToggleTimer(tm.ID)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.KitchenID != k.ID() {
				t.Fatalf("event for wrong kitchen: %+v", ev)
			}
			if ev.Type == runner.EventTimerComplete {
				if ev.Timer == nil || ev.Timer.ID != tm.ID {
					t.Fatalf("unexpected completion event: %+v", ev)
				}
				return
			}
		case <-timeout:
			t.Fatalf("no completion event received")
		}
	}
}

func TestKitchen_CloseEndsSubscriptions(t *testing.T) {
	k := openKitchen(t, runner.Options{})
	events, unsubscribe := k.Subscribe()

	k.Close()
	unsubscribe()

	for range events {
	}

	if _, err := k.AddTimer("late", 10, ""); !errors.Is(err, runner.ErrKitchenClosed) {
		t.Fatalf("expected ErrKitchenClosed, got %v", err)
	}
	if k.Close() != nil {
		t.Fatalf("second close returns nothing")
	}

	late, _ := k.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscription on closed kitchen should be closed")
	}
}

func TestKitchen_ViewIncludesTimersAndRecipes(t *testing.T) {
	k := openKitchen(t, runner.Options{})
	_, _ = k.AddTimer("Thé", 180, "")
	_, _ = k.Cook([]domain.Recipe{soup()})

	v := k.View()
	if v.ID != k.ID() || v.UserID != "alice" {
		t.Fatalf("unexpected view identity: %+v", v)
	}
	if len(v.Timers) != 1 || len(v.Recipes) != 1 {
		t.Fatalf("unexpected view: %+v", v)
	}
}
