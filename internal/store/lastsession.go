package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// LastSession persists small cross-run state (the last selected course and
// the like) as one JSON object. Writes merge key-by-key so independent
// writers never clobber each other's entries.
type LastSession struct {
	path string
}

// NewLastSession points at the session state file.
func NewLastSession(path string) *LastSession {
	return &LastSession{path: path}
}

// Get decodes one entry into dest, reporting whether it was present.
func (s *LastSession) Get(key string, dest any) bool {
	entries, err := s.read()
	if err != nil {
		return false
	}
	raw, ok := entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores one entry, preserving every other key in the file.
func (s *LastSession) Set(key string, value any) error {
	entries, err := s.read()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session entry %s: %w", key, err)
	}
	entries[key] = raw

	content, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.WriteFile(s.path, content, 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

func (s *LastSession) read() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session state: %w", err)
	}

	entries := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A corrupt state file is advisory data; start over rather than
		// blocking every write.
		return map[string]json.RawMessage{}, nil
	}
	return entries, nil
}
