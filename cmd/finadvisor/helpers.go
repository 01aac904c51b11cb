package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"finadvisor/internal/core"
	"finadvisor/internal/log"
)

func newLogger(level, format string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return log.New(log.Config{
		Level:     lvl,
		Format:    format,
		Component: log.ComponentApp,
		Output:    out,
	})
}

// cliLogger logs to stderr at warn unless --log-level says otherwise
func cliLogger(level string, out io.Writer) *log.Logger {
	if level == "" {
		level = "warn"
	}
	return newLogger(level, "text", out).WithComponent(log.ComponentCLI)
}

// readEntries loads expenditure entries from path, or stdin when path is "-".
// Both a bare JSON array and an object with an expenditure_data field are accepted.
func readEntries(path string, stdin io.Reader) ([]core.ExpenditureEntry, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var entries []core.ExpenditureEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse entries: %w", err)
		}
		return entries, nil
	}

	var wrapped struct {
		ExpenditureData []core.ExpenditureEntry `json:"expenditure_data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}
	return wrapped.ExpenditureData, nil
}
