package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gustalya/gustalya/internal/cooking"
	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/runner"
	"github.com/gustalya/gustalya/internal/timer"
)

var errTimerNotFound = errors.New("timer not found")

type openKitchenRequest struct {
	ID        string   `json:"id"`
	RecipeIDs []string `json:"recipeIds"`
}

type cookRequest struct {
	RecipeIDs []string `json:"recipeIds"`
}

type voiceRequest struct {
	Transcript string `json:"transcript"`
}

// addTimerRequest accepts either DurationSec or a human Duration ("10 min").
// With neither, the category preset is used.
type addTimerRequest struct {
	Label       string `json:"label"`
	DurationSec int    `json:"durationSec"`
	Duration    string `json:"duration"`
	Category    string `json:"category"`
}

// kitchen resolves {id} to a kitchen owned by the caller. Other users'
// kitchens are reported as missing.
func (s *Server) kitchen(r *http.Request) (*runner.Kitchen, error) {
	k, err := s.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if k.UserID() != UserID(r) {
		return nil, runner.ErrKitchenNotFound
	}
	return k, nil
}

func (s *Server) openKitchen(w http.ResponseWriter, r *http.Request) {
	var req openKitchenRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	userID := UserID(r)
	var recipes []domain.Recipe
	if len(req.RecipeIDs) > 0 {
		loaded, err := s.loadRecipes(r, userID, req.RecipeIDs)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		recipes = loaded
	}

	k, err := s.manager.Open(strings.TrimSpace(req.ID), userID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if len(recipes) > 0 {
		if _, err := k.Cook(recipes); err != nil {
			_, _ = s.manager.Close(r.Context(), k.ID())
			s.respondErr(w, r, err)
			return
		}
	}

	respondJSON(w, k.View(), http.StatusCreated)
}

func (s *Server) getKitchen(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, k.View(), http.StatusOK)
}

func (s *Server) closeKitchen(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	summaries, err := s.manager.Close(r.Context(), k.ID())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []cooking.Summary{}
	}
	respondJSON(w, map[string]any{"summaries": summaries}, http.StatusOK)
}

func (s *Server) cook(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var req cookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.RecipeIDs) == 0 {
		s.respondErr(w, r, cooking.ErrNoRecipes)
		return
	}
	recipes, err := s.loadRecipes(r, k.UserID(), req.RecipeIDs)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	views, err := k.Cook(recipes)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, views, http.StatusCreated)
}

func (s *Server) listCooking(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, k.Recipes(), http.StatusOK)
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	s.stepHandler(w, r, (*runner.Kitchen).Advance)
}

func (s *Server) previous(w http.ResponseWriter, r *http.Request) {
	s.stepHandler(w, r, (*runner.Kitchen).Previous)
}

func (s *Server) startStepTimer(w http.ResponseWriter, r *http.Request) {
	s.stepHandler(w, r, (*runner.Kitchen).StartStepTimer)
}

func (s *Server) stepHandler(w http.ResponseWriter, r *http.Request, fn func(*runner.Kitchen, string) (cooking.SessionView, error)) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	view, err := fn(k, chi.URLParam(r, "recipeId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, view, http.StatusOK)
}

func (s *Server) voice(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var req voiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := k.Voice(chi.URLParam(r, "recipeId"), req.Transcript)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, view, http.StatusOK)
}

func (s *Server) removeRecipe(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	summary, err := s.manager.RemoveRecipe(r.Context(), k.ID(), chi.URLParam(r, "recipeId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, summary, http.StatusOK)
}

func (s *Server) listTimers(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, k.Timers(), http.StatusOK)
}

func (s *Server) addTimer(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var req addTimerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category := strings.TrimSpace(req.Category)
	seconds := req.DurationSec
	if seconds == 0 && strings.TrimSpace(req.Duration) != "" {
		parsed, ok := domain.ParseDuration(req.Duration)
		if !ok {
			s.respondErr(w, r, timer.ErrInvalidDuration)
			return
		}
		seconds = parsed
	}
	if seconds == 0 {
		if preset, ok := domain.SuggestedDuration(category); ok {
			seconds = preset
		}
	}

	t, err := k.AddTimer(req.Label, seconds, category)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, t, http.StatusCreated)
}

func (s *Server) toggleTimer(w http.ResponseWriter, r *http.Request) {
	s.timerHandler(w, r, (*runner.Kitchen).ToggleTimer)
}

func (s *Server) resetTimer(w http.ResponseWriter, r *http.Request) {
	s.timerHandler(w, r, (*runner.Kitchen).ResetTimer)
}

// timerHandler applies fn and answers with the updated timer. Unknown ids
// are a no-op for the kitchen; the client still gets a 404.
func (s *Server) timerHandler(w http.ResponseWriter, r *http.Request, fn func(*runner.Kitchen, string) error) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	id := chi.URLParam(r, "timerId")
	if err := fn(k, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	t, ok := k.Timer(id)
	if !ok {
		s.respondErr(w, r, errTimerNotFound)
		return
	}
	respondJSON(w, t, http.StatusOK)
}

func (s *Server) removeTimer(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := k.RemoveTimer(chi.URLParam(r, "timerId")); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearTimers(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := k.ClearTimers(); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
