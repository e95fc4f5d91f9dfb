// Package achievements turns cooking statistics into profile badges.
package achievements

import (
	"github.com/gustalya/gustalya/internal/storage"
)

type Metric string

const (
	MetricCooks           Metric = "cooks"
	MetricFinishedCooks   Metric = "finished_cooks"
	MetricDistinctRecipes Metric = "distinct_recipes"
	MetricTimedSeconds    Metric = "timed_seconds"
)

type Badge struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Metric      Metric  `json:"metric"`
	Target      int     `json:"target"`
	Current     int     `json:"current"`
	Unlocked    bool    `json:"unlocked"`
	Progress    float64 `json:"progress"`
}

type definition struct {
	id          string
	title       string
	description string
	metric      Metric
	target      int
}

var definitions = []definition{
	{"first_cook", "Premier plat", "Lancer une première recette en mode cuisine", MetricCooks, 1},
	{"regular_cook", "Habitué des fourneaux", "Cuisiner 10 fois", MetricCooks, 10},
	{"explorer", "Explorateur", "Cuisiner 5 recettes différentes", MetricDistinctRecipes, 5},
	{"slow_food", "Slow food", "Cumuler 10 heures de minuteurs de recette", MetricTimedSeconds, 10 * 3600},
	{"finisher", "Jusqu'au bout", "Aller au bout de 25 recettes", MetricFinishedCooks, 25},
}

// Evaluate returns every badge in a stable order. A nil stats value counts as
// a brand new profile.
func Evaluate(stats *storage.CookingStats) []Badge {
	var s storage.CookingStats
	if stats != nil {
		s = *stats
	}

	badges := make([]Badge, 0, len(definitions))
	for _, def := range definitions {
		current := value(s, def.metric)
		progress := float64(current) / float64(def.target)
		if progress > 1 {
			progress = 1
		}
		badges = append(badges, Badge{
			ID:          def.id,
			Title:       def.title,
			Description: def.description,
			Metric:      def.metric,
			Target:      def.target,
			Current:     current,
			Unlocked:    current >= def.target,
			Progress:    progress,
		})
	}
	return badges
}

// Unlocked filters Evaluate down to earned badges.
func Unlocked(stats *storage.CookingStats) []Badge {
	var out []Badge
	for _, b := range Evaluate(stats) {
		if b.Unlocked {
			out = append(out, b)
		}
	}
	return out
}

func value(s storage.CookingStats, m Metric) int {
	switch m {
	case MetricCooks:
		return s.TotalCooks
	case MetricFinishedCooks:
		return s.FinishedCooks
	case MetricDistinctRecipes:
		return s.DistinctRecipes
	case MetricTimedSeconds:
		return s.TotalTimedSec
	default:
		return 0
	}
}
