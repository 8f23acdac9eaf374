package commands

import (
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"tracker/internal/core"
)

// Prompter asks the user for whatever a command was not given.
type Prompter interface {
	// Interactive reports whether prompting is possible at all.
	Interactive() bool
	// Transaction fills in the empty fields of a new transaction.
	Transaction(description, amount, typ *string) error
	Confirm(title string) (bool, error)
}

type terminalPrompter struct{}

// NewTerminalPrompter prompts with huh forms when stdin is a terminal.
func NewTerminalPrompter() Prompter {
	return terminalPrompter{}
}

func (terminalPrompter) Interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (terminalPrompter) Transaction(description, amount, typ *string) error {
	var fields []huh.Field
	if strings.TrimSpace(*description) == "" {
		fields = append(fields, huh.NewInput().
			Title("Description").
			Value(description).
			Validate(func(s string) error {
				_, err := core.ValidateDescription(s)
				return err
			}))
	}
	if strings.TrimSpace(*amount) == "" {
		fields = append(fields, huh.NewInput().
			Title("Amount").
			Description("e.g. 12.50").
			Value(amount).
			Validate(func(s string) error {
				_, err := core.ParseAmount(s)
				return err
			}))
	}
	if *typ == "" {
		*typ = string(core.Expense)
		fields = append(fields, huh.NewSelect[string]().
			Title("Type").
			Options(
				huh.NewOption("Expense", string(core.Expense)),
				huh.NewOption("Income", string(core.Income)),
			).
			Value(typ))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func (terminalPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
