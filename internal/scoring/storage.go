package scoring

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Entry is one recorded game result.
type Entry struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Score     int    `json:"score"`
	Moves     int    `json:"moves"`
	TimeSpent int    `json:"time_spent"`
	Timestamp string `json:"timestamp"`
}

// Storage defines the interface for recording and loading game results.
// This allows for mocking the persistence layer during tests.
type Storage interface {
	// Record appends one finished game result.
	Record(entry Entry) error
	// LoadAll loads every recorded result.
	LoadAll() ([]Entry, error)
}

// JSONFileStorage is an implementation of Storage that keeps results in a
// stream of JSON objects in a single file.
type JSONFileStorage struct {
	path string
}

// NewJSONFileStorage creates a JSONFileStorage at the default location under
// the user's config directory.
func NewJSONFileStorage() (*JSONFileStorage, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user home directory: %w", err)
	}
	return &JSONFileStorage{path: filepath.Join(homeDir, ".config", "signmem", "results.json")}, nil
}

// NewJSONFileStorageAt creates a JSONFileStorage backed by the given file.
func NewJSONFileStorageAt(path string) *JSONFileStorage {
	return &JSONFileStorage{path: path}
}

// LoadAll reads and decodes all result entries from the JSON file.
func (jfs *JSONFileStorage) LoadAll() ([]Entry, error) {
	file, err := os.Open(jfs.path)
	// A missing file just means no results yet.
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening results file for reading: %w", err)
	}
	defer file.Close()

	entries := make([]Entry, 0)
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error decoding JSON entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Record appends an entry by rewriting the whole file.
func (jfs *JSONFileStorage) Record(entry Entry) error {
	entries, err := jfs.LoadAll()
	if err != nil {
		return fmt.Errorf("could not load results for saving: %w", err)
	}
	entries = append(entries, entry)

	dir := filepath.Dir(jfs.path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating results directory: %w", err)
		}
	}

	file, err := os.OpenFile(jfs.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error opening results file for writing: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, e := range entries {
		if err := encoder.Encode(e); err != nil {
			return fmt.Errorf("error encoding JSON entry: %w", err)
		}
	}

	return writer.Flush()
}
