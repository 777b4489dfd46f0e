package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/delivery"
	"github.com/theory-cloud/sitetheory/pkg/invalidation"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/testkit"
)

type fakeInvalidator struct {
	opts    int
	created []string
	waited  bool
	err     error
}

func (f *fakeInvalidator) Create(_ context.Context, distributionID string, paths ...string) (invalidation.Invalidation, error) {
	if f.err != nil {
		return invalidation.Invalidation{}, f.err
	}
	f.created = append(f.created, distributionID)
	return invalidation.Invalidation{
		ID:             "I1",
		DistributionID: distributionID,
		Status:         invalidation.StatusInProgress,
		Paths:          invalidation.NormalizePaths(paths),
	}, nil
}

func (f *fakeInvalidator) Get(_ context.Context, distributionID, id string) (invalidation.Invalidation, error) {
	return invalidation.Invalidation{ID: id, DistributionID: distributionID, Status: invalidation.StatusCompleted}, nil
}

func (f *fakeInvalidator) Wait(_ context.Context, inv invalidation.Invalidation) (invalidation.Invalidation, error) {
	f.waited = true
	inv.Status = invalidation.StatusCompleted
	return inv, nil
}

type harness struct {
	cli    *cli
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	log    *observability.TestLogger
	inv    *fakeInvalidator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		log:    observability.NewTestLogger(),
		inv:    &fakeInvalidator{},
	}
	h.cli = &cli{
		stdout: h.stdout,
		stderr: h.stderr,
		logger: h.log,
		newInvalidator: func(_ context.Context, opts ...invalidation.Option) (invalidation.Client, error) {
			h.inv.opts = len(opts)
			return h.inv, nil
		},
	}
	return h
}

func (h *harness) run(args ...string) int {
	return h.cli.execute(context.Background(), args)
}

func writeCDKJSON(t *testing.T) string {
	t.Helper()
	return writeCDKJSONWith(t, nil)
}

func writeCDKJSONWith(t *testing.T, extra map[string]any) string {
	t.Helper()
	tables := testkit.Tables()

	doc := map[string]any{config.GlobalsKey: tables.Globals}
	for k, v := range extra {
		doc[k] = v
	}
	for name, table := range tables.Environments {
		doc[name] = table
	}
	body, err := json.Marshal(map[string]any{
		"app":     "go mod download && go run ./cmd/sitetheory",
		"context": doc,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cdk.json")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func TestContextCommand_YAML(t *testing.T) {
	h := newHarness(t)
	path := writeCDKJSON(t)

	require.Equal(t, 0, h.run("context", "--config", path, "--env", "production", "--validate"))

	var ctx config.Context
	require.NoError(t, yaml.Unmarshal(h.stdout.Bytes(), &ctx))
	require.Equal(t, "foo", ctx.AppName)
	require.Equal(t, "production", ctx.Environment)
	require.True(t, ctx.IsProd)
	require.Equal(t, "main", ctx.Repo.Branch)
}

func TestContextCommand_DefaultsToDevelopment(t *testing.T) {
	h := newHarness(t)
	path := writeCDKJSON(t)

	require.Equal(t, 0, h.run("context", "-c", path, "-o", "json"))

	var ctx config.Context
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &ctx))
	require.Equal(t, "development", ctx.Environment)
	require.Equal(t, "develop", ctx.Repo.Branch)
}

func TestContextCommand_ValidateFails(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("globals:\n  appName: foo\n"), 0o600))

	require.Equal(t, 1, h.run("context", "-c", path, "--validate"))
	require.Contains(t, h.stderr.String(), "sitetheory: FAIL")
	require.Contains(t, h.stderr.String(), config.ErrorCodeMissingField)
}

func TestContextCommand_MissingFile(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 1, h.run("context", "-c", filepath.Join(t.TempDir(), "nope.json")))
	require.Contains(t, h.stderr.String(), config.ErrorCodeReadFailed)
}

func TestPlanCommand_Text(t *testing.T) {
	h := newHarness(t)
	path := writeCDKJSON(t)

	require.Equal(t, 0, h.run("plan", "-c", path, "-e", "staging"))

	out := h.stdout.String()
	require.Contains(t, out, "Pipeline: fooUIPipeline")
	require.Contains(t, out, delivery.ActionDeployApp)
	require.Contains(t, out, delivery.ActionInvalidateCache)
	require.NotContains(t, out, delivery.ActionApproval)
}

func TestPlanCommand_ProductionYAML(t *testing.T) {
	h := newHarness(t)
	path := writeCDKJSON(t)

	require.Equal(t, 0, h.run("plan", "-c", path, "-e", "production", "-o", "yaml"))

	var plan delivery.Plan
	require.NoError(t, yaml.Unmarshal(h.stdout.Bytes(), &plan))
	require.Equal(t, []string{delivery.StageSource, delivery.StageBuild, delivery.StageApprove, delivery.StageDeploy}, plan.StageNames())
}

func TestInvalidateCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("invalidate", "--distribution-id", "E2EXAMPLE", "--path", "/index.html", "--path", "assets/*", "--wait"))

	require.Equal(t, []string{"E2EXAMPLE"}, h.inv.created)
	require.True(t, h.inv.waited)
	require.Equal(t, 2, h.inv.opts)
	require.Equal(t, "I1\tCompleted\t/index.html,/assets/*\n", h.stdout.String())

	entry, ok := h.log.Find("invalidation created")
	require.True(t, ok)
	require.Equal(t, "I1", entry.Fields["invalidation_id"])
}

func TestInvalidateCommand_Errors(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 1, h.run("invalidate"))
	require.Contains(t, h.stderr.String(), "--distribution-id is required")

	h = newHarness(t)
	h.inv.err = errors.New("access denied")
	require.Equal(t, 1, h.run("invalidate", "--distribution-id", "E1"))
	_, ok := h.log.Find("invalidation failed")
	require.True(t, ok)
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	path := writeCDKJSON(t)
	require.Equal(t, 1, h.run("context", "-c", path, "-o", "xml"))
	require.Contains(t, h.stderr.String(), `unknown output format "xml"`)
}

func TestContextCommand_UsesDocumentEnvName(t *testing.T) {
	path := writeCDKJSONWith(t, map[string]any{config.EnvNameKey: "staging"})

	h := newHarness(t)
	require.Equal(t, 0, h.run("context", "-c", path, "-o", "json"))
	var ctx config.Context
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &ctx))
	require.Equal(t, "staging", ctx.Environment)

	h = newHarness(t)
	require.Equal(t, 0, h.run("plan", "-c", path, "-e", "production", "-o", "json"))
	var plan delivery.Plan
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &plan))
	require.Contains(t, plan.StageNames(), delivery.StageApprove)
}
