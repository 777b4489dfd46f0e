package delivery

import (
	"fmt"

	"github.com/theory-cloud/sitetheory/pkg/config"
)

// DistributionIDEnvVar carries the distribution id into the invalidation project.
const DistributionIDEnvVar = "CLOUDFRONT_ID"

const InvalidateAllPaths = "/*"

// AppBuildSpec is the CodeBuild spec of the BuildApp stage. The commands are opaque to this
// package; only the environment name is templated in.
func AppBuildSpec(ctx config.Context) map[string]any {
	return map[string]any{
		"version": "0.2",
		"phases": map[string]any{
			"install": map[string]any{
				"runtime-versions": map[string]any{
					"nodejs": ctx.NodeRuntimeVersion(),
				},
				"commands": []string{
					"npm install -g " + ctx.BuildTool(),
					"npm install",
				},
			},
			"build": map[string]any{
				"commands": []string{
					"echo Build started",
					"ng build --configuration=" + ctx.Environment,
				},
			},
			"post_build": map[string]any{
				"commands": []string{
					"echo Build Complete",
				},
			},
		},
		"artifacts": map[string]any{
			"files":          []string{"**/*"},
			"base-directory": ctx.BaseDir,
		},
	}
}

// InvalidationBuildSpec invalidates every cached path of the distribution named by
// $CLOUDFRONT_ID.
func InvalidationBuildSpec() map[string]any {
	return map[string]any{
		"version": "0.2",
		"phases": map[string]any{
			"build": map[string]any{
				"commands": []string{
					fmt.Sprintf(`aws cloudfront create-invalidation --distribution-id ${%s} --paths "%s"`, DistributionIDEnvVar, InvalidateAllPaths),
				},
			},
		},
	}
}

// DistributionARN formats the ARN the invalidation role is scoped to. CloudFront ARNs carry
// no region.
func DistributionARN(account, distributionID string) string {
	return fmt.Sprintf("arn:aws:cloudfront::%s:distribution/%s", account, distributionID)
}
