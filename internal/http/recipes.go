package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gustalya/gustalya/internal/achievements"
	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/storage"
)

const maxImageBytes = 10 << 20

var (
	errExtractionDisabled = errors.New("recipe extraction is not configured")
	errRecipeReadOnly     = errors.New("recipe belongs to another user")
)

type extractURLRequest struct {
	URL  string `json:"url"`
	Save bool   `json:"save"`
}

// visible reports whether userID may see recipe. Recipes without an owner
// (imported from files) are shared read-only.
func visible(recipe *domain.Recipe, userID string) bool {
	return recipe.OwnerID == "" || recipe.OwnerID == userID
}

func (s *Server) findRecipe(r *http.Request, id string) (*domain.Recipe, error) {
	recipe, err := s.repo.GetRecipe(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !visible(recipe, UserID(r)) {
		return nil, storage.ErrRecipeNotFound
	}
	return recipe, nil
}

// editableRecipe is findRecipe restricted to the recipe's owner.
func (s *Server) editableRecipe(r *http.Request, id string) (*domain.Recipe, error) {
	recipe, err := s.findRecipe(r, id)
	if err != nil {
		return nil, err
	}
	if recipe.OwnerID != UserID(r) {
		return nil, errRecipeReadOnly
	}
	return recipe, nil
}

// loadRecipes fetches recipes in the requested order.
func (s *Server) loadRecipes(r *http.Request, userID string, ids []string) ([]domain.Recipe, error) {
	recipes := make([]domain.Recipe, 0, len(ids))
	for _, id := range ids {
		recipe, err := s.repo.GetRecipe(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if !visible(recipe, userID) {
			return nil, storage.ErrRecipeNotFound
		}
		recipes = append(recipes, *recipe)
	}
	return recipes, nil
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	owner := ""
	if mine, _ := strconv.ParseBool(r.URL.Query().Get("mine")); mine {
		owner = userID
	}

	all, err := s.repo.ListRecipes(r.Context(), owner)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	recipes := make([]domain.Recipe, 0, len(all))
	for i := range all {
		if visible(&all[i], userID) {
			recipes = append(recipes, all[i])
		}
	}
	respondJSON(w, recipes, http.StatusOK)
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req domain.Recipe
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe := domain.NewRecipe("", UserID(r), req.Title, req.Steps)
	recipe.Description = strings.TrimSpace(req.Description)
	recipe.Category = strings.TrimSpace(req.Category)
	recipe.Servings = req.Servings
	recipe.Ingredients = req.Ingredients
	if err := recipe.Validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.repo.CreateRecipe(r.Context(), recipe); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, recipe, http.StatusCreated)
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.findRecipe(r, chi.URLParam(r, "recipeId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, recipe, http.StatusOK)
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) {
	existing, err := s.editableRecipe(r, chi.URLParam(r, "recipeId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var req domain.Recipe
	if !decodeJSON(w, r, &req) {
		return
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.Description = strings.TrimSpace(req.Description)
	existing.Category = strings.TrimSpace(req.Category)
	existing.Servings = req.Servings
	existing.Ingredients = req.Ingredients
	existing.Steps = req.Steps
	if err := existing.Validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.repo.UpdateRecipe(r.Context(), existing); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, existing, http.StatusOK)
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.editableRecipe(r, chi.URLParam(r, "recipeId"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.repo.DeleteRecipe(r.Context(), recipe.ID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) extractURL(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		s.respondErr(w, r, errExtractionDisabled)
		return
	}
	var req extractURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	recipe, err := s.extractor.FromURL(r.Context(), req.URL)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.finishExtraction(w, r, recipe, req.Save)
}

// extractImage accepts a multipart "image" field or a raw image body.
func (s *Server) extractImage(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		s.respondErr(w, r, errExtractionDisabled)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	var (
		data []byte
		mime string
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ferr := r.FormFile("image")
		if ferr != nil {
			respondError(w, "missing image field", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		mime = header.Header.Get("Content-Type")
	} else {
		data, err = io.ReadAll(r.Body)
		mime = r.Header.Get("Content-Type")
	}
	if err != nil {
		respondError(w, "image too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	recipe, err := s.extractor.FromImage(r.Context(), data, mime)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))
	s.finishExtraction(w, r, recipe, save)
}

func (s *Server) finishExtraction(w http.ResponseWriter, r *http.Request, recipe *domain.Recipe, save bool) {
	recipe.OwnerID = UserID(r)
	if !save {
		respondJSON(w, recipe, http.StatusOK)
		return
	}
	if err := s.repo.CreateRecipe(r.Context(), recipe); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, recipe, http.StatusCreated)
}

type profileStatsResponse struct {
	Stats        *storage.CookingStats `json:"stats"`
	Achievements []achievements.Badge  `json:"achievements"`
}

func (s *Server) profileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.GetCookingStats(r.Context(), UserID(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, profileStatsResponse{
		Stats:        stats,
		Achievements: achievements.Evaluate(stats),
	}, http.StatusOK)
}

// profileHistory lists past cooks, optionally limited with ?days=N.
func (s *Server) profileHistory(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r)
	var (
		cooks []storage.CookRecord
		err   error
	)
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, convErr := strconv.Atoi(raw)
		if convErr != nil || days <= 0 {
			respondError(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		since := time.Now().UTC().AddDate(0, 0, -days)
		cooks, err = s.repo.GetRecentCooks(r.Context(), userID, since)
	} else {
		cooks, err = s.repo.GetCooksByUser(r.Context(), userID)
	}
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if cooks == nil {
		cooks = []storage.CookRecord{}
	}
	respondJSON(w, cooks, http.StatusOK)
}
