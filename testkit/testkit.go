package testkit

import (
	"os/exec"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory/pkg/config"
)

const (
	TestAccount = "123456789012"
	TestRegion  = "us-west-2"
)

// Context returns a complete, valid deployment context for environment env.
func Context(env string, isProd bool) config.Context {
	return config.Context{
		AppName:               "foo",
		Region:                TestRegion,
		Account:               TestAccount,
		Environment:           env,
		IsProd:                isProd,
		Domain:                "example.com",
		BaseDir:               "dist/foo",
		CodeStarConnectionARN: "arn:aws:codestar-connections:us-west-2:123456789012:connection/abcd-1234",
		Repo: config.Repo{
			Owner:  "acme",
			Name:   "foo-ui",
			Branch: "main",
		},
	}
}

// Tables returns globals plus staging and production overrides, in the shape cdk.json carries.
func Tables() config.Tables {
	return config.Tables{
		Globals: config.Table{
			"appName":               "foo",
			"region":                TestRegion,
			"account":               TestAccount,
			"domain":                "example.com",
			"baseDir":               "dist/foo",
			"codeStarConnectionArn": "arn:aws:codestar-connections:us-west-2:123456789012:connection/abcd-1234",
			"repo":                  map[string]any{"owner": "acme", "name": "foo-ui", "branch": "develop"},
			"environment":           "development",
			"isProd":                false,
		},
		Environments: map[string]config.Table{
			"staging": {
				"environment": "staging",
				"repo":        map[string]any{"owner": "acme", "name": "foo-ui", "branch": "staging"},
			},
			"production": {
				"environment": "production",
				"isProd":      true,
				"repo":        map[string]any{"owner": "acme", "name": "foo-ui", "branch": "main"},
			},
		},
	}
}

// RequireNode skips t when no node binary is available; jsii needs one to load the
// construct library.
func RequireNode(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not found on PATH; skipping CDK synthesis test")
	}
}

// Env is an isolated CDK app with one stack pinned to the test account and region.
type Env struct {
	App   awscdk.App
	Stack awscdk.Stack
}

func New(t testing.TB) *Env {
	t.Helper()
	RequireNode(t)

	app := awscdk.NewApp(nil)
	stack := awscdk.NewStack(app, jsii.String("Test"), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: jsii.String(TestAccount),
			Region:  jsii.String(TestRegion),
		},
	})
	return &Env{App: app, Stack: stack}
}

// Template synthesizes the stack.
func (e *Env) Template() assertions.Template {
	return assertions.Template_FromStack(e.Stack, nil)
}

// Props is shorthand for the loosely typed maps assertion matchers take.
func Props(m map[string]any) *map[string]interface{} {
	return &m
}
