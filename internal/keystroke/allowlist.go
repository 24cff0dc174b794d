package keystroke

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Allowlist holds the usernames routed to the pre-trained model.
type Allowlist struct {
	names map[string]struct{}
}

// LoadAllowlist reads a plaintext file with one username per line.
// Blank lines and lines starting with '#' are skipped; matching is
// case-insensitive.
func LoadAllowlist(path string) (*Allowlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open allowlist: %w", err)
	}
	defer f.Close()

	list := &Allowlist{names: make(map[string]struct{})}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list.names[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read allowlist: %w", err)
	}
	return list, nil
}

// NewAllowlist builds an allowlist from explicit names.
func NewAllowlist(names ...string) *Allowlist {
	list := &Allowlist{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		list.names[strings.ToLower(trimmed)] = struct{}{}
	}
	return list
}

// Contains reports whether the username is allow-listed.
func (a *Allowlist) Contains(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.names[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Len returns the number of allow-listed usernames.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}
