package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}

// NormalizeStage maps environment aliases to canonical stage values.
//
// Canonical stages are lowercased and safe for tags and stack names.
func NormalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	switch stage {
	case "prod", "production", "live":
		return "live"
	case "dev", "development":
		return "dev"
	case "stg", "stage", "staging":
		return "stage"
	case "test", "testing":
		return "test"
	case "local":
		return "local"
	default:
		return sanitizePart(stage)
	}
}

// StackName returns a deterministic CloudFormation stack name: <app>-<stage>.
func StackName(appName, environment string) string {
	parts := []string{}
	if app := sanitizePart(appName); app != "" {
		parts = append(parts, app)
	}
	if stage := NormalizeStage(environment); stage != "" {
		parts = append(parts, stage)
	}
	return strings.Join(parts, "-")
}

// Subdomain returns the hosted name of the site: <appName>.<domain>.
func Subdomain(appName, domain string) string {
	return appName + "." + domain
}

// ConstructID joins the app name and parts with dashes: <app>-<part>-<part>.
//
// App names are used verbatim so logical ids stay stable across renames of the sanitizer.
func ConstructID(appName string, parts ...string) string {
	return strings.Join(append([]string{appName}, parts...), "-")
}

// SourceArtifactName names the checked-out source artifact: <app>-ui-source-artifact.
func SourceArtifactName(appName string) string {
	return ConstructID(appName, "ui-source-artifact")
}

// BuildArtifactName names the built site artifact: <app>-ui-app-deploy-artifact.
func BuildArtifactName(appName string) string {
	return ConstructID(appName, "ui-app-deploy-artifact")
}

// BuildProjectName is the CodeBuild project name of the app build: <app>-build-project.
func BuildProjectName(appName string) string {
	return ConstructID(appName, "build-project")
}

// BuildActionName is the pipeline action running the app build: <app>-build-action.
func BuildActionName(appName string) string {
	return ConstructID(appName, "build-action")
}

// PipelineID is the construct id of the delivery pipeline: <app>UIPipeline.
func PipelineID(appName string) string {
	return appName + "UIPipeline"
}
