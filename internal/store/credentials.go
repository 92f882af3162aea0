package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// CredentialsFile reads and rewrites the line-oriented key=value login
// file. Rewrites touch only the cookie line; comments, blank lines, and
// unknown keys survive verbatim so hand-edited files stay intact.
type CredentialsFile struct {
	path string
}

// NewCredentialsFile points at the credentials file. The file may not exist
// yet; Load treats that as empty credentials.
func NewCredentialsFile(path string) *CredentialsFile {
	return &CredentialsFile{path: path}
}

// Load reads the stored login material. A missing file yields zero
// credentials without an error; callers fall through to interactive login.
func (f *CredentialsFile) Load() (models.Credentials, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return models.Credentials{}, nil
	}
	if err != nil {
		return models.Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}

	var creds models.Credentials
	for _, line := range strings.Split(string(raw), "\n") {
		key, value, ok := splitConfigLine(line)
		if !ok {
			continue
		}
		switch key {
		case "cookie":
			creds.Cookie = value
		case "username":
			creds.Username = value
		case "password":
			creds.Password = value
		}
	}
	return creds, nil
}

// SaveCookie replaces the cookie line in place, appending one when the file
// never carried it. Every other line is written back untouched.
func (f *CredentialsFile) SaveCookie(cookie string) error {
	var lines []string
	if raw, err := os.ReadFile(f.path); err == nil {
		lines = strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read credentials file: %w", err)
	}

	replaced := false
	for i, line := range lines {
		key, _, ok := splitConfigLine(line)
		if ok && key == "cookie" {
			lines[i] = "cookie=" + cookie
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, "cookie="+cookie)
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(f.path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}

// splitConfigLine parses one `key=value` line. Comment and blank lines
// report no key; values lose surrounding quotes.
func splitConfigLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	key, value, found := strings.Cut(trimmed, "=")
	if !found {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"'`)
	if key == "" {
		return "", "", false
	}
	return key, value, true
}
