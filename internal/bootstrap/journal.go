package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JournalFileName is the journal's name inside the files directory.
const JournalFileName = "last-init.json"

// WriteJournal persists the result of the most recent cycle with a
// write-then-rename so a crash mid-write never leaves a torn journal.
func WriteJournal(filesDir string, result *InitializationResult) error {
	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return fmt.Errorf("create files directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	finalPath := filepath.Join(filesDir, JournalFileName)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write journal temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename journal: %w", err)
	}

	if df, err := os.Open(filesDir); err == nil {
		df.Sync()
		df.Close()
	}
	return nil
}

// ReadJournal loads the last journaled result.
func ReadJournal(filesDir string) (*InitializationResult, error) {
	data, err := os.ReadFile(filepath.Join(filesDir, JournalFileName))
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var result InitializationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal journal: %w", err)
	}
	return &result, nil
}
