package main

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// scope names a permission an API key can hold.
type scope string

const (
	scopeAll            scope = "*"
	scopeAuthManage     scope = "auth:manage"
	scopeTemplatesRead  scope = "templates:read"
	scopeTemplatesWrite scope = "templates:write"
	scopeFiltersRead    scope = "filters:read"
	scopeFiltersUse     scope = "filters:use"
	scopeStatsRead      scope = "stats:read"
	scopeStatsWrite     scope = "stats:write"
	scopeServerConfig   scope = "server:config"
	scopeServerControl  scope = "server:control"
)

// knownScopes is every scope a key may be created with.
var knownScopes = map[scope]string{
	scopeAll:            "every scope below",
	scopeAuthManage:     "list, create and delete API keys",
	scopeTemplatesRead:  "list, read, test and preview templates",
	scopeTemplatesWrite: "save, delete and reload templates",
	scopeFiltersRead:    "list filters and hash algorithms",
	scopeFiltersUse:     "run a filter through /api/filters/apply",
	scopeStatsRead:      "read render statistics and the build version",
	scopeStatsWrite:     "reset render statistics",
	scopeServerConfig:   "read and change the configuration",
	scopeServerControl:  "restart and shut down the server",
}

// scopeSet is the set of scopes granted to a request.
type scopeSet map[scope]struct{}

// parseScopes reads the space separated form scopes are stored in.
func parseScopes(stored string) scopeSet {
	set := scopeSet{}
	for _, s := range strings.Fields(stored) {
		set[scope(s)] = struct{}{}
	}
	return set
}

// validateScopes checks requested against knownScopes. Duplicates collapse.
func validateScopes(requested []string) (scopeSet, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("at least one scope is required")
	}
	set := scopeSet{}
	for _, s := range requested {
		if _, ok := knownScopes[scope(s)]; !ok {
			return nil, fmt.Errorf("unknown scope %q", s)
		}
		set[scope(s)] = struct{}{}
	}
	return set, nil
}

func (s scopeSet) allows(required scope) bool {
	if _, master := s[scopeAll]; master {
		return true
	}
	_, ok := s[required]
	return ok
}

// names returns the scopes in sorted order.
func (s scopeSet) names() []string {
	names := make([]string, 0, len(s))
	for sc := range s {
		names = append(names, string(sc))
	}
	slices.Sort(names)
	return names
}

// String is the stored form.
func (s scopeSet) String() string {
	return strings.Join(s.names(), " ")
}

type scopesContextKey struct{}

func withScopes(ctx context.Context, s scopeSet) context.Context {
	return context.WithValue(ctx, scopesContextKey{}, s)
}

func scopesFrom(ctx context.Context) (scopeSet, bool) {
	s, ok := ctx.Value(scopesContextKey{}).(scopeSet)
	return s, ok
}

// hasScope reports whether the request was authenticated with required.
func hasScope(r *http.Request, required scope) bool {
	s, ok := scopesFrom(r.Context())
	return ok && s.allows(required)
}

// requireScope answers 403 and returns false when the request lacks required.
func requireScope(w http.ResponseWriter, r *http.Request, required scope) bool {
	if hasScope(r, required) {
		return true
	}
	respondWithError(w, http.StatusForbidden, fmt.Sprintf("Forbidden: requires '%s' scope", required))
	return false
}

// scopeTable lists knownScopes for GET /api/auth/scopes.
func scopeTable() []ScopeInfo {
	table := make([]ScopeInfo, 0, len(knownScopes))
	for _, sc := range slices.Sorted(maps.Keys(knownScopes)) {
		table = append(table, ScopeInfo{Name: string(sc), Description: knownScopes[sc]})
	}
	return table
}

// ScopeInfo describes one scope.
type ScopeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
