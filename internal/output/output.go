package output

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/leongj/azure-agents-cli/internal/normalize"
)

var (
	errorLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	errorMessage = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Marshal renders value as indented JSON. HTML characters are left as is so
// markers like "<recursion>" print verbatim.
func Marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes value to w followed by a newline.
func WriteJSON(w io.Writer, value any) error {
	payload, err := Marshal(value)
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Envelope wraps records under a single key, e.g. {"threads": [...]}.
func Envelope(key string, records []any) *normalize.Map {
	if records == nil {
		records = []any{}
	}
	wrapped := normalize.NewMap()
	wrapped.Set(key, records)
	return wrapped
}

// WriteError prints a styled "Error:" line. Styling is dropped when w is not
// a terminal.
func WriteError(w io.Writer, err error) {
	if err == nil {
		return
	}
	message := strings.TrimSpace(err.Error())
	_, _ = lipgloss.Fprintln(w, errorLabel.Render("Error:")+" "+errorMessage.Render(message))
}
