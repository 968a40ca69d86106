package testutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CallRecord is one invocation of the fake renderer.
type CallRecord struct {
	Args      []string
	Timestamp time.Time
	ExitCode  int
	Error     error
}

// CallLogEntry represents a single call record in YAML format.
type CallLogEntry struct {
	Args      []string `yaml:"args,omitempty"`
	Timestamp string   `yaml:"timestamp"`
	Error     string   `yaml:"error,omitempty"`
	ExitCode  int      `yaml:"exit_code"`
}

// CallLog wraps []CallLogEntry for YAML serialization.
type CallLog struct {
	Entries []CallLogEntry `yaml:"entries"`
}

// AppendCallLog adds record to the YAML call log at path, creating it if needed.
func AppendCallLog(path string, record CallRecord) error {
	log, err := ReadCallLog(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		log = &CallLog{}
	}

	entry := CallLogEntry{
		Args:      record.Args,
		Timestamp: record.Timestamp.Format(time.RFC3339Nano),
		ExitCode:  record.ExitCode,
	}
	if record.Error != nil {
		entry.Error = record.Error.Error()
	}
	log.Entries = append(log.Entries, entry)

	data, err := yaml.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshaling call log to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing call log to %s: %w", path, err)
	}
	return nil
}

// ReadCallLog reads a YAML call log file.
func ReadCallLog(path string) (*CallLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading call log from %s: %w", path, err)
	}

	var log CallLog
	if err := yaml.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("unmarshaling call log YAML: %w", err)
	}
	return &log, nil
}

// HasError returns true if the entry has a non-empty error string.
func (e CallLogEntry) HasError() bool {
	return e.Error != ""
}
