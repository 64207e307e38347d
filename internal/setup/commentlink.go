package setup

import (
	"fmt"
	"regexp"
)

// DefaultMatch recognizes "#123" style issue references
const DefaultMatch = "#([1-9][0-9]*)"

// DefaultHTML renders a reference as a link to the issue on the Redmine at url
func DefaultHTML(url string) string {
	return fmt.Sprintf(`<a href="%s/issues/$1">#$1</a>`, url)
}

func compileMatch(match string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(match)
	if err != nil {
		return nil, fmt.Errorf("invalid issue number regex %q: %w", match, err)
	}
	return re, nil
}

// ExtractIssueIDs returns the distinct issue ids referenced in message, in order of appearance.
// The id is the first capture group of match, or the whole match when it has none.
func ExtractIssueIDs(message, match string) ([]string, error) {
	if match == "" {
		match = DefaultMatch
	}
	re, err := compileMatch(match)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(message, -1) {
		id := m[0]
		if len(m) > 1 {
			id = m[1]
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
