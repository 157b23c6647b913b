package prompt

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirmer asks a yes/no question. Implementations return false, nil when
// the user declines or aborts the prompt.
type Confirmer interface {
	Confirm(title string) (bool, error)
}

// Secreter asks for a value without echoing it.
type Secreter interface {
	Secret(title string) (string, error)
}

// Terminal prompts on the controlling terminal.
type Terminal struct{}

// Confirm defaults to "No": only an explicit yes returns true.
func (Terminal) Confirm(title string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot prompt for confirmation: %w", err)
	}
	return confirmed, nil
}

func (Terminal) Secret(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	if err != nil {
		return "", fmt.Errorf("cannot prompt for secret: %w", err)
	}
	return value, nil
}

// Yes confirms without asking, for --yes flags and scripts.
type Yes struct{}

func (Yes) Confirm(string) (bool, error) { return true, nil }
