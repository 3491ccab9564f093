package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled by user")

const doneLabel = "[Done]"

// ConfirmPrompt asks a yes/no question.
func ConfirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		// promptui reports "n" as ErrAbort on confirm prompts
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrCancelled
		}
		return false, err
	}
	return strings.EqualFold(result, "y"), nil
}

// ConfirmUninstall warns that removing every sub-package deletes the theme's
// shared assets too, then asks for confirmation.
func ConfirmUninstall(id string) (bool, error) {
	PrintWarning("this removes every installed sub-package of %s and its unused assets", id)
	return ConfirmPrompt(fmt.Sprintf("Uninstall %s", id))
}

// MultiSelectPrompt lets the user pick several items, one per round, with
// fuzzy filtering. Choosing the trailing done entry ends the selection.
func MultiSelectPrompt(label string, items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	remaining := append([]string(nil), items...)
	var selected []string

	for len(remaining) > 0 {
		choices := append(append([]string(nil), remaining...), doneLabel)

		prompt := promptui.Select{
			Label:             fmt.Sprintf("%s (%d selected)", label, len(selected)),
			Items:             choices,
			Size:              selectSize(len(choices)),
			Searcher:          fuzzySearcher(choices),
			StartInSearchMode: len(choices) > 10,
		}

		index, _, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil, ErrCancelled
			}
			return nil, err
		}
		if index == len(choices)-1 {
			break
		}

		selected = append(selected, remaining[index])
		remaining = append(remaining[:index], remaining[index+1:]...)
	}

	return selected, nil
}

func fuzzySearcher(choices []string) func(string, int) bool {
	return func(input string, index int) bool {
		if index < 0 || index >= len(choices) {
			return false
		}
		input = strings.TrimSpace(input)
		if input == "" {
			return true
		}
		return fuzzy.MatchNormalizedFold(input, choices[index])
	}
}

func selectSize(n int) int {
	if n > 10 {
		return 10
	}
	return n
}
