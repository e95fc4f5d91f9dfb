package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	durationLexeme = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)(?:\s*/\s*([0-9]+))?|[a-z]+|\S`)
	bareNumber     = regexp.MustCompile(`^[0-9]+(?:[.,][0-9]+)?$`)
)

// rangeSeparators join the bounds of "10-15 min" or "1 h à 1 h 30".
var rangeSeparators = map[string]bool{
	"-": true, "\u2013": true, "a": true, "to": true, "et": true, "ou": true, "or": true,
}

var unitSeconds = map[string]int{
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600, "heure": 3600, "heures": 3600,
	"m": 60, "mn": 60, "min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1, "seconde": 1, "secondes": 1,
}

// Fold lowercases s and strips diacritics so "Précédent" and "precedent"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// ParseDuration converts a human duration such as "10 min", "1h30" or
// "2 heures" into seconds. A number without unit is read as minutes when it
// is the whole text, and as minutes (or seconds) right after hours (or
// minutes). Anywhere else it is ignored unless it opens a range. Ranges keep
// their lower bound. It returns false when nothing usable is found.
func ParseDuration(text string) (int, bool) {
	folded := Fold(text)
	qs := durationQuantities(folded)
	if len(qs) == 0 {
		return 0, false
	}
	if bareNumber.MatchString(folded) {
		qs[0].unit = 60
	}

	var (
		total     float64
		matched   bool
		prevUnit  int
		lower     float64
		openRange bool
	)

loop:
	for _, q := range qs {
		if q.temperature {
			prevUnit, openRange = 0, false
			continue
		}

		unit := q.unit
		if unit == 0 {
			switch prevUnit {
			case 3600:
				unit = 60
			case 60:
				unit = 1
			default:
				lower, openRange = q.value, true
				continue
			}
		}

		if q.afterSeparator {
			switch {
			case openRange:
				total += lower * float64(unit)
				matched = true
				break loop
			case matched && unit >= prevUnit:
				break loop
			}
		}

		openRange = false
		total += q.value * float64(unit)
		prevUnit = unit
		matched = true
	}

	sec := int(math.Round(total))
	if !matched || sec <= 0 {
		return 0, false
	}
	return sec, true
}

type quantity struct {
	value          float64
	unit           int
	temperature    bool
	afterSeparator bool
}

// durationQuantities splits folded text into numbers with the unit that
// directly follows them, if any.
func durationQuantities(folded string) []quantity {
	lexemes := durationLexeme.FindAllStringSubmatch(folded, -1)

	var out []quantity
	separator := false
	for i := 0; i < len(lexemes); i++ {
		m := lexemes[i]
		if m[1] == "" {
			if rangeSeparators[m[0]] {
				separator = true
			}
			continue
		}

		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			den, err := strconv.Atoi(m[2])
			if err != nil || den == 0 {
				continue
			}
			value /= float64(den)
		}

		q := quantity{value: value, afterSeparator: separator}
		separator = false
		if i+1 < len(lexemes) {
			next := lexemes[i+1][0]
			if unit, ok := unitSeconds[next]; ok {
				q.unit = unit
				i++
			} else if next == "°" || strings.HasPrefix(next, "degr") {
				q.temperature = true
			}
		}
		out = append(out, q)
	}
	return out
}

// FormatDuration renders seconds as "mm:ss" or "h:mm:ss".
func FormatDuration(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return strconv.Itoa(h) + ":" + pad2(m) + ":" + pad2(s)
	}
	return pad2(m) + ":" + pad2(s)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
