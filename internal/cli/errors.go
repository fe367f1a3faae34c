package cli

import (
	"strings"

	werrors "github.com/spetersoncode/byline/internal/errors"
)

// ExitCode returns the process exit code for an error. Errors without a
// kind exit with ExitGeneralError.
func ExitCode(err error) int {
	return werrors.ExitCode(err)
}

// FormatErrorMessage returns formatted error with suggestion if available.
func FormatErrorMessage(err error) string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(err.Error())

	if suggestion := werrors.SuggestionOf(err); suggestion != "" {
		b.WriteString("\n\nSuggestion: ")
		b.WriteString(suggestion)
	}
	return b.String()
}

// Common suggestions
const (
	SuggestRunInit       = "Run 'byline init' to create a new database."
	SuggestCheckEntryKey = "Check the entry key format. It should be like FEED-12."
	SuggestListFeeds     = "Run 'byline feed list' to see available feeds."
	SuggestCreateFeed    = "Create one with: byline feed create <KEY> --name <NAME>"
)
