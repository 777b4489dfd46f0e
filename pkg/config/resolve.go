package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// EnvNameKey is the context key selecting the environment table.
	EnvNameKey = "ENV_NAME"
	// GlobalsKey is the context key holding the defaults shared by every environment.
	GlobalsKey = "globals"

	DefaultEnvironment = "development"
)

// Table is one level of configuration: top-level keys map to raw values.
type Table map[string]any

// Tables holds the global defaults and the per-environment overrides.
type Tables struct {
	Globals      Table            `json:"globals" yaml:"globals"`
	Environments map[string]Table `json:"environments" yaml:"environments"`

	// Selected is the ENV_NAME value carried by the document itself, if any.
	Selected string `json:"-" yaml:"-"`
}

// contextKeys maps the lowercased spelling of every Context key to its canonical form.
var (
	contextKeys = canonicalKeys(
		"appName", "region", "account", "environment", "isProd", "domain", "baseDir",
		"codeStarConnectionArn", "repo", "infraDir", "nodeVersion", "buildToolVersion",
	)
	repoKeys = canonicalKeys("owner", "name", "branch")
)

func canonicalKeys(keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[strings.ToLower(k)] = k
	}
	return out
}

// Lookup returns the raw value stored under key, or nil.
type Lookup func(key string) any

// EnvName returns the selected environment name, defaulting to "development" when raw is
// nil, blank or not a string.
func EnvName(raw any) string {
	if s, ok := raw.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return DefaultEnvironment
}

// EnvironmentNames lists the environments with an override table, sorted.
func (t Tables) EnvironmentNames() []string {
	names := make([]string, 0, len(t.Environments))
	for name := range t.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge overlays the override table for envName onto the globals. Keys are replaced whole:
// a nested object such as repo comes entirely from whichever side supplies it last.
func (t Tables) Merge(envName string) Table {
	merged := make(Table, len(t.Globals))
	for k, v := range t.Globals {
		merged[k] = v
	}
	for k, v := range t.Environments[envName] {
		merged[k] = v
	}
	return merged
}

// Resolve merges the tables for envName and decodes the result.
//
// No required-field validation happens here; call Context.Validate for that.
func Resolve(envName string, tables Tables) (Context, error) {
	return decode(tables.Merge(EnvName(envName)))
}

// ResolveLookup reads the globals and the envName table through lookup, then resolves.
func ResolveLookup(lookup Lookup, envName string) (Context, error) {
	envName = EnvName(envName)

	globals, err := asTable(GlobalsKey, lookup(GlobalsKey))
	if err != nil {
		return Context{}, err
	}
	overrides, err := asTable(envName, lookup(envName))
	if err != nil {
		return Context{}, err
	}

	tables := Tables{Globals: globals}
	if overrides != nil {
		tables.Environments = map[string]Table{envName: overrides}
	}
	return Resolve(envName, tables)
}

// TablesFromMap splits a context document into globals and environment tables. Every object
// valued key other than "globals" is an environment; scalar keys (feature flags) are skipped.
func TablesFromMap(doc map[string]any) (Tables, error) {
	tables := Tables{Environments: map[string]Table{}}
	for key, value := range doc {
		if key == EnvNameKey {
			if name, ok := value.(string); ok {
				tables.Selected = strings.TrimSpace(name)
			}
			continue
		}
		if key == GlobalsKey {
			globals, err := asTable(key, value)
			if err != nil {
				return Tables{}, err
			}
			tables.Globals = globals
			continue
		}
		if _, ok := value.(map[string]any); !ok {
			continue
		}
		env, err := asTable(key, value)
		if err != nil {
			return Tables{}, err
		}
		tables.Environments[key] = env
	}
	return tables, nil
}

func asTable(key string, raw any) (Table, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case Table:
		return v, nil
	case map[string]any:
		return Table(v), nil
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, &Error{Code: ErrorCodeInvalidValue, Field: key, Message: "is not an object", Err: err}
	}
	var out Table
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Code: ErrorCodeInvalidValue, Field: key, Message: "is not an object", Err: err}
	}
	return out, nil
}

// checkKeyCase rejects keys that differ from a known key only by case. Merging is exact-match
// but decoding is not, so such a key would otherwise shadow or lose to its canonical twin.
func checkKeyCase(prefix string, table map[string]any, known map[string]string) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		canonical, ok := known[strings.ToLower(k)]
		if ok && canonical != k {
			return &Error{
				Code:    ErrorCodeInvalidValue,
				Field:   prefix + k,
				Message: fmt.Sprintf("unknown key, expected %q", prefix+canonical),
			}
		}
	}
	return nil
}

func decode(merged Table) (Context, error) {
	if err := checkKeyCase("", merged, contextKeys); err != nil {
		return Context{}, err
	}
	var repo map[string]any
	switch v := merged["repo"].(type) {
	case map[string]any:
		repo = v
	case Table:
		repo = v
	}
	if err := checkKeyCase("repo.", repo, repoKeys); err != nil {
		return Context{}, err
	}

	body, err := json.Marshal(merged)
	if err != nil {
		return Context{}, &Error{Code: ErrorCodeInvalidValue, Message: "context is not serializable", Err: err}
	}

	var ctx Context
	if err := json.Unmarshal(body, &ctx); err != nil {
		field := ""
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = typeErr.Field
		}
		return Context{}, &Error{
			Code:    ErrorCodeInvalidValue,
			Field:   field,
			Message: fmt.Sprintf("cannot decode context: %v", err),
			Err:     err,
		}
	}
	return ctx, nil
}
