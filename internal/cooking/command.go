package cooking

import (
	"errors"
	"strings"
	"unicode"

	"github.com/gustalya/gustalya/internal/domain"
)

var ErrUnknownCommand = errors.New("unknown voice command")

// Command is a hands-free instruction recognised in cooking mode.
type Command int

const (
	CommandUnknown Command = iota
	CommandNext
	CommandPrevious
	CommandRepeat
	CommandTimer
)

func (c Command) String() string {
	switch c {
	case CommandNext:
		return "next"
	case CommandPrevious:
		return "previous"
	case CommandRepeat:
		return "repeat"
	case CommandTimer:
		return "timer"
	default:
		return "unknown"
	}
}

var commandWords = map[string]Command{
	"suivant": CommandNext, "suivante": CommandNext, "next": CommandNext,
	"apres": CommandNext, "ensuite": CommandNext, "continue": CommandNext, "continuer": CommandNext,

	"precedent": CommandPrevious, "precedente": CommandPrevious, "previous": CommandPrevious,
	"back": CommandPrevious, "retour": CommandPrevious, "avant": CommandPrevious,

	"repete": CommandRepeat, "repeter": CommandRepeat, "repeat": CommandRepeat,
	"encore": CommandRepeat, "again": CommandRepeat,

	"minuteur": CommandTimer, "timer": CommandTimer, "chrono": CommandTimer, "chronometre": CommandTimer,
}

// ParseCommand finds the first known command word in a transcript such as
// "étape suivante" or "Répète s'il te plaît".
func ParseCommand(transcript string) Command {
	words := strings.FieldsFunc(domain.Fold(transcript), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if cmd, ok := commandWords[w]; ok {
			return cmd
		}
	}
	return CommandUnknown
}
