package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// WriteJSON writes benchmark results to a JSON file.
func WriteJSON(filename string, results Results, commandLine string) error {
	results.Timestamp = time.Now().Format(time.RFC3339)
	results.MachineInfo.CommandLine = commandLine

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		f.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("encode results: %w", err)
	}
	return f.Close()
}
