package cooking

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		transcript string
		expected   Command
	}{
		{"suivant", CommandNext},
		{"Étape SUIVANTE", CommandNext},
		{"next step please", CommandNext},
		{"précédent", CommandPrevious},
		{"on revient en arrière, retour", CommandPrevious},
		{"Répète s'il te plaît", CommandRepeat},
		{"lance le minuteur", CommandTimer},
		{"", CommandUnknown},
		{"bonjour", CommandUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			if got := ParseCommand(tt.transcript); got != tt.expected {
				t.Fatalf("ParseCommand(%q) = %v want %v", tt.transcript, got, tt.expected)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	if CommandTimer.String() != "timer" || Command(99).String() != "unknown" {
		t.Fatalf("unexpected command names")
	}
}
