package config

import (
	"strings"

	"github.com/theory-cloud/sitetheory/pkg/naming"
)

const (
	DefaultInfraDir         = "cdk"
	DefaultNodeVersion      = "16"
	DefaultBuildToolVersion = "@angular/cli@14.2.8"
)

// Repo identifies the source repository the pipeline checks out.
type Repo struct {
	Owner  string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// Context is the merged deployment configuration for one environment.
//
// It is a plain value: resolve it once and pass it to the builders.
type Context struct {
	// AppName prefixes every construct id and is the leftmost label of the site's hostname.
	AppName string `json:"appName,omitempty" yaml:"appName,omitempty"`

	// Region is the deployment region of the stack. The certificate is always issued in us-east-1.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Account pins the stack account. Empty falls back to CDK_DEFAULT_ACCOUNT.
	Account string `json:"account,omitempty" yaml:"account,omitempty"`

	// Environment is passed to the application build (`--configuration=<environment>`) and the
	// self-mutation synth (`ENV_NAME=<environment>`).
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`

	// IsProd gates the manual approval stage.
	IsProd bool `json:"isProd,omitempty" yaml:"isProd,omitempty"`

	// Domain is the public hosted zone the site lives under.
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// BaseDir is the build output directory uploaded to the bucket.
	BaseDir string `json:"baseDir,omitempty" yaml:"baseDir,omitempty"`

	// CodeStarConnectionARN is the pre-authorized source connection.
	CodeStarConnectionARN string `json:"codeStarConnectionArn,omitempty" yaml:"codeStarConnectionArn,omitempty"`

	Repo Repo `json:"repo,omitempty" yaml:"repo,omitempty"`

	// InfraDir is the directory, relative to the repository root, holding this CDK app.
	InfraDir string `json:"infraDir,omitempty" yaml:"infraDir,omitempty"`

	NodeVersion      string `json:"nodeVersion,omitempty" yaml:"nodeVersion,omitempty"`
	BuildToolVersion string `json:"buildToolVersion,omitempty" yaml:"buildToolVersion,omitempty"`
}

// Subdomain is the site hostname, <appName>.<domain>.
func (c Context) Subdomain() string {
	return naming.Subdomain(c.AppName, c.Domain)
}

// StackName is the CloudFormation stack name, <app>-<stage>.
func (c Context) StackName() string {
	return naming.StackName(c.AppName, c.Environment)
}

// InfraDirectory is InfraDir, or "cdk" when unset.
func (c Context) InfraDirectory() string {
	return orDefault(c.InfraDir, DefaultInfraDir)
}

// NodeRuntimeVersion is the CodeBuild nodejs runtime, "16" when unset.
func (c Context) NodeRuntimeVersion() string {
	return orDefault(c.NodeVersion, DefaultNodeVersion)
}

// BuildTool is the npm package installed globally before the app build.
func (c Context) BuildTool() string {
	return orDefault(c.BuildToolVersion, DefaultBuildToolVersion)
}

// LogFields returns the context as log fields. Sensitive values are masked by the logger.
func (c Context) LogFields() map[string]any {
	return map[string]any{
		"app_name":              c.AppName,
		"region":                c.Region,
		"account":               c.Account,
		"environment":           c.Environment,
		"is_prod":               c.IsProd,
		"domain":                c.Domain,
		"subdomain":             c.Subdomain(),
		"base_dir":              c.BaseDir,
		"codeStarConnectionArn": c.CodeStarConnectionARN,
		"repo":                  c.Repo.Owner + "/" + c.Repo.Name + "@" + c.Repo.Branch,
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
