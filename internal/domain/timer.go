package domain

import "time"

// Well-known timer categories. Any other string is accepted as a free-form tag.
const (
	CategoryCustom    = "custom"
	CategoryStep      = "step"
	CategoryPasta     = "pasta"
	CategoryRice      = "rice"
	CategoryEgg       = "egg"
	CategoryMeat      = "meat"
	CategoryVegetable = "vegetable"
	CategorySauce     = "sauce"
	CategoryBaking    = "baking"
)

// Timer is a single countdown. RemainingSec stays within [0, TotalSec].
type Timer struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	Category     string    `json:"category"`
	TotalSec     int       `json:"totalSec"`
	RemainingSec int       `json:"remainingSec"`
	Running      bool      `json:"running"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Finished reports whether the countdown reached zero. A finished timer may
// still be Running; the flag is only changed by the user.
func (t Timer) Finished() bool {
	return t.RemainingSec == 0
}

var suggestedDurations = map[string]int{
	CategoryPasta:     10 * 60,
	CategoryRice:      18 * 60,
	CategoryEgg:       9 * 60,
	CategoryMeat:      25 * 60,
	CategoryVegetable: 12 * 60,
	CategorySauce:     20 * 60,
	CategoryBaking:    35 * 60,
}

// SuggestedDuration returns the preset countdown offered for quick-add.
func SuggestedDuration(category string) (int, bool) {
	sec, ok := suggestedDurations[category]
	return sec, ok
}
