package setup

import (
	"github.com/charmbracelet/huh"
)

// HuhPrompter prompts on the terminal, one field per form
type HuhPrompter struct {
	theme *huh.Theme
}

// NewHuhPrompter creates a terminal prompter
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{theme: huh.ThemeDracula()}
}

// Input asks for a line of text, pre-filled with defaultValue
func (p *HuhPrompter) Input(title, defaultValue string) (string, error) {
	value := defaultValue
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&value),
		),
	).WithTheme(p.theme).Run()
	return value, err
}

// Confirm asks a yes/no question
func (p *HuhPrompter) Confirm(title string, defaultValue bool) (bool, error) {
	value := defaultValue
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&value),
		),
	).WithTheme(p.theme).Run()
	return value, err
}

// Select asks for one of options
func (p *HuhPrompter) Select(title string, options []string, defaultValue string) (string, error) {
	value := defaultValue
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(huh.NewOptions(options...)...).
				Value(&value),
		),
	).WithTheme(p.theme).Run()
	return value, err
}
