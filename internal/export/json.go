package export

import (
	"encoding/json"

	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/worklog"
)

// FormatJSON outputs the entries as a JSON array to the printer.
func FormatJSON(printer *output.Printer, entries []*worklog.Entry) error {
	return printer.WriteJSON(entries)
}

// WriteJSON writes the entries as an indented JSON array to path
// atomically.
func WriteJSON(path string, entries []*worklog.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return output.NewSystemErrorWithCause("failed to marshal entries", err)
	}
	return writeAtomic(path, append(data, '\n'))
}
