// Package policy maps (HTTP method, path pattern) pairs onto required role
// sets. The table replaces framework-level route security: middleware asks
// Check and acts on the decision, nothing here touches the request itself.
package policy

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
)

// Rule matches requests by method and path pattern. Method "*" matches any
// method. Patterns are exact paths, or prefixes ending in "/**" which match
// the prefix and anything below it. First matching rule wins.
type Rule struct {
	Method  string   `json:"method"`
	Pattern string   `json:"pattern"`
	Public  bool     `json:"public,omitempty"`
	Roles   []string `json:"roles,omitempty"` // empty and not public: any authenticated identity
}

// Decision is the outcome of a policy check.
type Decision int

const (
	Allow Decision = iota
	RequireAuth
	Forbid
)

// Table is a concurrency-safe, reloadable rule list.
type Table struct {
	mu    sync.RWMutex
	rules []Rule
}

func New(rules []Rule) *Table {
	return &Table{rules: rules}
}

// Default mirrors the store's standing access matrix: auth and health
// endpoints are public, the catalog is readable by any role and writable by
// moderators and admins, deletes are admin-only, and everything else just
// needs an authenticated identity.
func Default() *Table {
	return New([]Rule{
		{Method: "*", Pattern: "/auth/**", Public: true},
		{Method: "GET", Pattern: "/healthz", Public: true},
		{Method: "GET", Pattern: "/api/laptops/**", Roles: []string{"USER", "MODERATOR", "ADMIN"}},
		{Method: "POST", Pattern: "/api/laptops/**", Roles: []string{"MODERATOR", "ADMIN"}},
		{Method: "PUT", Pattern: "/api/laptops/**", Roles: []string{"MODERATOR", "ADMIN"}},
		{Method: "DELETE", Pattern: "/api/laptops/**", Roles: []string{"ADMIN"}},
		{Method: "*", Pattern: "/**"},
	})
}

// Check evaluates the request against the table. role is empty for an
// anonymous request. A request matching no rule requires authentication.
func (t *Table) Check(method, path, role string) Decision {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.rules {
		if !methodMatches(r.Method, method) || !patternMatches(r.Pattern, path) {
			continue
		}
		switch {
		case r.Public:
			return Allow
		case role == "":
			return RequireAuth
		case len(r.Roles) == 0:
			return Allow
		}
		for _, allowed := range r.Roles {
			if allowed == role {
				return Allow
			}
		}
		return Forbid
	}
	if role == "" {
		return RequireAuth
	}
	return Allow
}

// Replace swaps in a new rule list atomically.
func (t *Table) Replace(rules []Rule) {
	t.mu.Lock()
	t.rules = rules
	t.mu.Unlock()
}

func methodMatches(ruleMethod, method string) bool {
	return ruleMethod == "*" || ruleMethod == method
}

func patternMatches(pattern, path string) bool {
	if pattern == "/**" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}

// LoadFile reads a JSON rule array from disk.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}
