// Package setup implements the interactive initialization of the plugin: the Redmine
// connectivity section and the comment-link section used to recognize issue references.
package setup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"its-redmine/internal/config"
)

// Association policies for issue references in commit messages
const (
	AssociationMandatory = "MANDATORY"
	AssociationSuggested = "SUGGESTED"
	AssociationOptional  = "OPTIONAL"
)

// Associations lists the policies in the order they are offered
var Associations = []string{AssociationMandatory, AssociationSuggested, AssociationOptional}

// Prompter asks the operator for values
type Prompter interface {
	Input(title, defaultValue string) (string, error)
	Confirm(title string, defaultValue bool) (bool, error)
	Select(title string, options []string, defaultValue string) (string, error)
}

// ConnectivityCheck verifies that the URL and API key reach Redmine
type ConnectivityCheck func(ctx context.Context, url, apiKey string) error

// Wizard walks the operator through the plugin sections
type Wizard struct {
	prompter Prompter
	check    ConnectivityCheck
	out      io.Writer
}

// NewWizard creates a wizard printing progress to out
func NewWizard(prompter Prompter, check ConnectivityCheck, out io.Writer) *Wizard {
	if out == nil {
		out = io.Discard
	}
	return &Wizard{prompter: prompter, check: check, out: out}
}

// Run prompts for the connectivity and comment-link sections, starting from current. It returns
// nil when the operator leaves the URL empty.
func (w *Wizard) Run(ctx context.Context, current config.PluginSection) (*config.PluginSection, error) {
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "*** Redmine connectivity")

	section := current
	for {
		url, err := w.prompter.Input("Redmine URL (empty to skip)", current.URL)
		if err != nil {
			return nil, err
		}
		section.URL = strings.TrimRight(strings.TrimSpace(url), "/")
		if section.URL == "" {
			return nil, nil
		}

		section.APIKey, err = w.prompter.Input("Redmine api_key", current.APIKey)
		if err != nil {
			return nil, err
		}
		section.APIKey = strings.TrimSpace(section.APIKey)

		test, err := w.prompter.Confirm(fmt.Sprintf("Test connectivity to %s", section.URL), true)
		if err != nil {
			return nil, err
		}
		if !test || w.connect(ctx, section) {
			break
		}
		current = section
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "*** Redmine issue-tracking association")

	link := current.CommentLink
	if link == nil {
		link = &config.CommentLink{Match: DefaultMatch, Association: AssociationSuggested}
	}

	match, err := w.prompter.Input("Redmine issue number regex", link.Match)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(match) == "" {
		match = DefaultMatch
	}
	if _, err := compileMatch(match); err != nil {
		return nil, err
	}

	association, err := w.prompter.Select("Issue number enforced in commit message", Associations, link.Association)
	if err != nil {
		return nil, err
	}

	section.CommentLink = &config.CommentLink{
		Match:       match,
		HTML:        DefaultHTML(section.URL),
		Association: association,
	}
	return &section, nil
}

func (w *Wizard) connect(ctx context.Context, section config.PluginSection) bool {
	fmt.Fprint(w.out, "Checking Redmine connectivity ... ")
	if err := w.check(ctx, section.URL, section.APIKey); err != nil {
		fmt.Fprintf(w.out, "*FAILED* (%v)\n", err)
		return false
	}
	fmt.Fprintln(w.out, "[OK]")
	return true
}
