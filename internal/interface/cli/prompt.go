package cli

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// ErrInterrupted is returned when the user leaves a prompt with Ctrl-C or Ctrl-D
var ErrInterrupted = errors.New("interrupted")

// Prompter asks the user for input
type Prompter interface {
	// Ask reads one line. validate, when set, is run on every keystroke.
	Ask(label, def string, secret bool, validate func(string) error) (string, error)

	// Choose returns the index of the picked item
	Choose(label string, items []string) (int, error)

	// Confirm asks a yes/no question
	Confirm(label string) (bool, error)
}

type promptuiPrompter struct{}

func translate(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrInterrupted
	}
	return err
}

func (promptuiPrompter) Ask(label, def string, secret bool, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: def != "",
	}
	if secret {
		p.Mask = '*'
	}
	if validate != nil {
		p.Validate = validate
	}
	v, err := p.Run()
	return v, translate(err)
}

func (promptuiPrompter) Choose(label string, items []string) (int, error) {
	sel := promptui.Select{Label: label, Items: items, Size: len(items)}
	idx, _, err := sel.Run()
	return idx, translate(err)
}

func (promptuiPrompter) Confirm(label string) (bool, error) {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := p.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return true, nil
}
