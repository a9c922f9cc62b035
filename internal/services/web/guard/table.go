package guard

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/spabooking/internal/services/web/identity"
)

// Route is one navigable page. Protected routes name exactly one role;
// public routes name none.
type Route struct {
	Path   string        `yaml:"path"`
	Page   string        `yaml:"page"`
	Role   identity.Role `yaml:"role,omitempty"`
	Public bool          `yaml:"public,omitempty"`
}

// Protected reports whether the route requires an authenticated role.
func (r Route) Protected() bool {
	return !r.Public
}

// Table is the ordered route configuration. The first matching entry wins.
type Table struct {
	Routes []Route `yaml:"routes"`
}

// ParseTable decodes and validates a YAML route table.
func ParseTable(data []byte) (Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var table Table
	if err := dec.Decode(&table); err != nil {
		return Table{}, fmt.Errorf("decode route table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// Validate reports every configuration error in the table.
func (t Table) Validate() error {
	if len(t.Routes) == 0 {
		return errors.New("route table is empty")
	}
	var errs []error
	seen := make(map[string]struct{}, len(t.Routes))
	for i, route := range t.Routes {
		where := fmt.Sprintf("route %d (%s)", i, route.Path)
		if !strings.HasPrefix(route.Path, "/") {
			errs = append(errs, fmt.Errorf("%s: path must start with /", where))
		}
		if strings.TrimSpace(route.Page) == "" {
			errs = append(errs, fmt.Errorf("%s: page is required", where))
		}
		if _, dup := seen[route.Path]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate path", where))
		}
		seen[route.Path] = struct{}{}

		switch {
		case route.Public && route.Role != "":
			errs = append(errs, fmt.Errorf("%s: public route must not require a role", where))
		case !route.Public && route.Role == "":
			errs = append(errs, fmt.Errorf("%s: protected route requires exactly one role", where))
		case route.Role != "" && !route.Role.Valid():
			errs = append(errs, fmt.Errorf("%s: unknown role %q", where, route.Role))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid route table: %w", errors.Join(errs...))
	}
	return nil
}

// Match returns the first route whose pattern matches path. A {name}
// segment matches any single non-empty segment.
func (t Table) Match(path string) (Route, bool) {
	segments := splitPath(path)
	for _, route := range t.Routes {
		if matchSegments(splitPath(route.Path), segments) {
			return route, true
		}
	}
	return Route{}, false
}

// Lookup returns the route registered for page.
func (t Table) Lookup(page string) (Route, bool) {
	for _, route := range t.Routes {
		if route.Page == page {
			return route, true
		}
	}
	return Route{}, false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, want := range pattern {
		got := segments[i]
		if isWildcard(want) {
			if got == "" {
				return false
			}
			continue
		}
		if want != got {
			return false
		}
	}
	return true
}

func isWildcard(segment string) bool {
	return len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}
