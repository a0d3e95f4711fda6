package domain

import (
	"fmt"
	"strings"
)

// Mode selects the prompt template and response style.
// It does not affect retrieval, only generation framing.
type Mode string

// Available modes.
const (
	// ModeInterview is professional and concise.
	ModeInterview Mode = "interview"

	// ModeNarrative is reflective personal storytelling.
	ModeNarrative Mode = "narrative"

	// ModeFastFacts is quick, scannable bullet points.
	ModeFastFacts Mode = "fast_facts"
)

// DefaultMode is the mode new conversations start in.
const DefaultMode = ModeInterview

// IsValid returns true if the mode is recognised.
func (m Mode) IsValid() bool {
	switch m {
	case ModeInterview, ModeNarrative, ModeFastFacts:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m Mode) String() string {
	return string(m)
}

// Name returns the display name of the mode.
func (m Mode) Name() string {
	switch m {
	case ModeInterview:
		return "Interview Mode"
	case ModeNarrative:
		return "Personal Storytelling Mode"
	case ModeFastFacts:
		return "Fast Facts Mode"
	default:
		return "Unknown"
	}
}

// Description returns a human-readable description of the mode.
func (m Mode) Description() string {
	switch m {
	case ModeInterview:
		return "Professional, concise responses for job interviews and networking"
	case ModeNarrative:
		return "Reflective, narrative responses that showcase personality"
	case ModeFastFacts:
		return "Quick, scannable information in bullet-point format"
	default:
		return "Unknown"
	}
}

// MaxTokens returns the generation budget for the mode.
func (m Mode) MaxTokens() int {
	switch m {
	case ModeNarrative:
		return 300
	case ModeFastFacts:
		return 200
	default:
		return 150
	}
}

// SwitchMessage returns the status line shown after switching to the mode.
func (m Mode) SwitchMessage() string {
	return fmt.Sprintf("Switched to %s: %s", m.Name(), m.Description())
}

// ParseMode converts a user-supplied mode name to a Mode.
// "personal_storytelling" and "storytelling" are accepted for ModeNarrative.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "interview":
		return ModeInterview, nil
	case "narrative", "storytelling", "personal_storytelling":
		return ModeNarrative, nil
	case "fast_facts", "fastfacts", "facts":
		return ModeFastFacts, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (available: %s)",
			ErrInvalidInput, s, strings.Join(modeNames(), ", "))
	}
}

// AllModes returns all available modes.
func AllModes() []Mode {
	return []Mode{ModeInterview, ModeNarrative, ModeFastFacts}
}

func modeNames() []string {
	modes := AllModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return names
}
