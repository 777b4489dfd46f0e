package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var stringKeys = []string{"appName", "region", "environment", "domain", "baseDir", "codeStarConnectionArn"}

func fieldValue(ctx Context, key string) any {
	switch key {
	case "appName":
		return ctx.AppName
	case "region":
		return ctx.Region
	case "environment":
		return ctx.Environment
	case "domain":
		return ctx.Domain
	case "baseDir":
		return ctx.BaseDir
	case "codeStarConnectionArn":
		return ctx.CodeStarConnectionARN
	case "isProd":
		return ctx.IsProd
	case "repo":
		return map[string]any{"owner": ctx.Repo.Owner, "name": ctx.Repo.Name, "branch": ctx.Repo.Branch}
	default:
		return nil
	}
}

func genRepo() *rapid.Generator[map[string]any] {
	return rapid.Custom(func(t *rapid.T) map[string]any {
		return map[string]any{
			"owner":  rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "owner"),
			"name":   rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "name"),
			"branch": rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "branch"),
		}
	})
}

// genTable draws a table holding a random subset of the context keys.
func genTable(label string) *rapid.Generator[Table] {
	return rapid.Custom(func(t *rapid.T) Table {
		table := Table{}
		for _, key := range stringKeys {
			if rapid.Bool().Draw(t, label+"."+key+".present") {
				table[key] = rapid.StringMatching(`[a-zA-Z0-9.:/-]{1,16}`).Draw(t, label+"."+key)
			}
		}
		if rapid.Bool().Draw(t, label+".isProd.present") {
			table["isProd"] = rapid.Bool().Draw(t, label+".isProd")
		}
		if rapid.Bool().Draw(t, label+".repo.present") {
			table["repo"] = genRepo().Draw(t, label+".repo")
		}
		return table
	})
}

func TestResolve_UnknownEnvironmentYieldsGlobals(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		globals := genTable("globals").Draw(t, "globals")
		overrides := genTable("override").Draw(t, "override")
		tables := Tables{Globals: globals, Environments: map[string]Table{"production": overrides}}

		env := rapid.StringMatching(`[a-z]{1,10}`).Filter(func(s string) bool { return s != "production" }).Draw(t, "env")

		got, err := Resolve(env, tables)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		want, err := decode(globals)
		if err != nil {
			t.Fatalf("decode globals: %v", err)
		}
		if got != want {
			t.Fatalf("resolved %#v, want globals %#v", got, want)
		}
	})
}

func TestResolve_OverridesWinFieldByField(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		globals := genTable("globals").Draw(t, "globals")
		overrides := genTable("override").Draw(t, "override")
		tables := Tables{Globals: globals, Environments: map[string]Table{"staging": overrides}}

		got, err := Resolve("staging", tables)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		for _, key := range append(append([]string{}, stringKeys...), "isProd", "repo") {
			source := globals
			if _, ok := overrides[key]; ok {
				source = overrides
			}
			want, present := source[key]
			if !present {
				switch key {
				case "isProd":
					want = false
				case "repo":
					want = map[string]any{"owner": "", "name": "", "branch": ""}
				default:
					want = ""
				}
			}
			require.Equal(t, want, fieldValue(got, key), "field %s", key)
		}
	})
}

func TestEnvName(t *testing.T) {
	require.Equal(t, "development", EnvName(nil))
	require.Equal(t, "development", EnvName("  "))
	require.Equal(t, "development", EnvName(42))
	require.Equal(t, "production", EnvName(" production "))
}

func TestResolve_DefaultsToDevelopmentTable(t *testing.T) {
	tables := Tables{
		Globals: Table{"appName": "foo", "domain": "example.com"},
		Environments: map[string]Table{
			"development": {"environment": "development", "domain": "dev.example.com"},
		},
	}

	ctx, err := Resolve("", tables)
	require.NoError(t, err)
	require.Equal(t, "development", ctx.Environment)
	require.Equal(t, "dev.example.com", ctx.Domain)
	require.Equal(t, "foo.dev.example.com", ctx.Subdomain())
}

func TestResolve_RepoReplacedWhole(t *testing.T) {
	tables := Tables{
		Globals: Table{"repo": map[string]any{"owner": "acme", "name": "site", "branch": "main"}},
		Environments: map[string]Table{
			"staging": {"repo": map[string]any{"branch": "develop"}},
		},
	}

	ctx, err := Resolve("staging", tables)
	require.NoError(t, err)
	require.Equal(t, Repo{Branch: "develop"}, ctx.Repo)
}

func TestResolve_InvalidValueReportsField(t *testing.T) {
	tables := Tables{Globals: Table{"isProd": "yes"}}

	_, err := Resolve("development", tables)
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, ErrorCodeInvalidValue, cfgErr.Code)
	require.Equal(t, "isProd", cfgErr.Field)
}

func TestResolveLookup(t *testing.T) {
	values := map[string]any{
		"globals":    map[string]any{"appName": "foo", "isProd": false},
		"production": map[string]any{"isProd": true, "environment": "production"},
	}
	lookup := func(key string) any { return values[key] }

	ctx, err := ResolveLookup(lookup, "production")
	require.NoError(t, err)
	require.Equal(t, "foo", ctx.AppName)
	require.True(t, ctx.IsProd)

	ctx, err = ResolveLookup(lookup, "")
	require.NoError(t, err)
	require.False(t, ctx.IsProd)
	require.Empty(t, ctx.Environment)

	_, err = ResolveLookup(func(string) any { return []any{"x"} }, "production")
	require.Error(t, err)
}

func TestTablesFromMap_SkipsScalarKeys(t *testing.T) {
	tables, err := TablesFromMap(map[string]any{
		"globals":                              map[string]any{"appName": "foo"},
		"staging":                              map[string]any{"environment": "staging"},
		"@aws-cdk/core:newStyleStackSynthesis": true,
		"ENV_NAME":                             "staging",
	})
	require.NoError(t, err)
	require.Equal(t, Table{"appName": "foo"}, tables.Globals)
	require.Equal(t, []string{"staging"}, tables.EnvironmentNames())
}

func TestTablesFromMap_KeepsSelectedEnvironment(t *testing.T) {
	tables, err := TablesFromMap(map[string]any{
		"globals":  map[string]any{"appName": "foo"},
		"ENV_NAME": " staging ",
	})
	require.NoError(t, err)
	require.Equal(t, "staging", tables.Selected)

	tables, err = TablesFromMap(map[string]any{"ENV_NAME": 7})
	require.NoError(t, err)
	require.Empty(t, tables.Selected)
}

func TestResolve_RejectsKeysDifferingOnlyInCase(t *testing.T) {
	cases := []struct {
		name   string
		tables Tables
		field  string
	}{
		{
			name:   "upper-case key",
			tables: Tables{Globals: Table{"APPNAME": "foo"}},
			field:  "APPNAME",
		},
		{
			name: "override spelled differently from global",
			tables: Tables{
				Globals:      Table{"appName": "foo"},
				Environments: map[string]Table{"staging": {"AppName": "bar"}},
			},
			field: "AppName",
		},
		{
			name:   "nested repo key",
			tables: Tables{Globals: Table{"repo": map[string]any{"Branch": "main"}}},
			field:  "repo.Branch",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve("staging", tc.tables)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, ErrorCodeInvalidValue, cfgErr.Code)
			require.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestResolve_IgnoresUnrelatedKeys(t *testing.T) {
	ctx, err := Resolve("staging", Tables{Globals: Table{"appName": "foo", "team": "web"}})
	require.NoError(t, err)
	require.Equal(t, "foo", ctx.AppName)
}
