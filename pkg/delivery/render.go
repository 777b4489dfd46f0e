package delivery

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipeline"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipelineactions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/pipelines"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

// Target is the hosting the deploy stage publishes to.
type Target struct {
	Bucket         awss3.IBucket
	DistributionID *string
}

// Pipeline holds the constructs rendered from a Plan.
type Pipeline struct {
	Pipeline     awscodepipeline.Pipeline
	SelfMutation pipelines.CodePipeline
	Stages       []awscodepipeline.IStage
	Artifacts    map[string]awscodepipeline.Artifact
}

type renderer struct {
	scope     constructs.Construct
	ctx       config.Context
	target    Target
	artifacts map[string]awscodepipeline.Artifact
}

// Render declares the CodePipeline described by plan under scope, then wraps it in a
// self-mutating pipelines.CodePipeline whose synth step reads the source artifact.
func Render(scope constructs.Construct, ctx config.Context, plan Plan, target Target) (*Pipeline, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	r := &renderer{
		scope:     scope,
		ctx:       ctx,
		target:    target,
		artifacts: map[string]awscodepipeline.Artifact{},
	}

	pipeline := awscodepipeline.NewPipeline(scope, jsii.String(plan.PipelineName), &awscodepipeline.PipelineProps{
		RestartExecutionOnUpdate: jsii.Bool(true),
	})

	out := &Pipeline{Pipeline: pipeline, Artifacts: r.artifacts}
	for _, stage := range plan.Stages {
		actions := make([]awscodepipeline.IAction, 0, len(stage.Actions))
		for _, action := range stage.OrderedActions() {
			rendered, err := r.action(action)
			if err != nil {
				return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
			}
			actions = append(actions, rendered)
		}
		out.Stages = append(out.Stages, pipeline.AddStage(&awscodepipeline.StageOptions{
			StageName: jsii.String(stage.Name),
			Actions:   &actions,
		}))
	}

	out.SelfMutation = pipelines.NewCodePipeline(scope, jsii.String(naming.ConstructID(ctx.AppName, "synth-pipeline-id")), &pipelines.CodePipelineProps{
		CodePipeline: pipeline,
		Synth: pipelines.NewCodeBuildStep(jsii.String("Synth"), &pipelines.CodeBuildStepProps{
			Input:                  pipelines.CodePipelineFileSet_FromArtifact(r.artifact(plan.Synth.Input)),
			InstallCommands:        jsii.Strings(plan.Synth.InstallCommands...),
			Commands:               jsii.Strings(plan.Synth.Commands...),
			PrimaryOutputDirectory: jsii.String(plan.Synth.PrimaryOutputDirectory),
		}),
	})

	return out, nil
}

func (r *renderer) artifact(name string) awscodepipeline.Artifact {
	if a, ok := r.artifacts[name]; ok {
		return a
	}
	a := awscodepipeline.NewArtifact(jsii.String(name), nil)
	r.artifacts[name] = a
	return a
}

func (r *renderer) outputs(names []string) *[]awscodepipeline.Artifact {
	out := make([]awscodepipeline.Artifact, 0, len(names))
	for _, name := range names {
		out = append(out, r.artifact(name))
	}
	return &out
}

func runOrder(a Action) *float64 {
	if a.RunOrder <= 0 {
		return nil
	}
	return jsii.Number(float64(a.RunOrder))
}

func (r *renderer) action(a Action) (awscodepipeline.IAction, error) {
	switch a.Kind {
	case KindSource:
		if len(a.Outputs) != 1 {
			return nil, fmt.Errorf("action %s: source actions produce exactly one artifact", a.Name)
		}
		return awscodepipelineactions.NewCodeStarConnectionsSourceAction(&awscodepipelineactions.CodeStarConnectionsSourceActionProps{
			ActionName:    jsii.String(a.Name),
			ConnectionArn: jsii.String(r.ctx.CodeStarConnectionARN),
			Owner:         jsii.String(r.ctx.Repo.Owner),
			Repo:          jsii.String(r.ctx.Repo.Name),
			Branch:        jsii.String(r.ctx.Repo.Branch),
			Output:        r.artifact(a.Outputs[0]),
			RunOrder:      runOrder(a),
		}), nil

	case KindBuild:
		spec := AppBuildSpec(r.ctx)
		project := awscodebuild.NewPipelineProject(r.scope, jsii.String(naming.ConstructID(r.ctx.AppName, "build-project-id")), &awscodebuild.PipelineProjectProps{
			ProjectName: jsii.String(naming.BuildProjectName(r.ctx.AppName)),
			Environment: &awscodebuild.BuildEnvironment{
				BuildImage: awscodebuild.LinuxBuildImage_AMAZON_LINUX_2_4(),
			},
			BuildSpec: awscodebuild.BuildSpec_FromObject(&spec),
		})
		return awscodepipelineactions.NewCodeBuildAction(&awscodepipelineactions.CodeBuildActionProps{
			ActionName: jsii.String(a.Name),
			Project:    project,
			Input:      r.artifact(a.Input),
			Outputs:    r.outputs(a.Outputs),
			RunOrder:   runOrder(a),
		}), nil

	case KindApproval:
		return awscodepipelineactions.NewManualApprovalAction(&awscodepipelineactions.ManualApprovalActionProps{
			ActionName: jsii.String(a.Name),
			RunOrder:   runOrder(a),
		}), nil

	case KindS3Deploy:
		if r.target.Bucket == nil {
			return nil, fmt.Errorf("action %s: no bucket to deploy to", a.Name)
		}
		return awscodepipelineactions.NewS3DeployAction(&awscodepipelineactions.S3DeployActionProps{
			ActionName: jsii.String(a.Name),
			Input:      r.artifact(a.Input),
			Bucket:     r.target.Bucket,
			RunOrder:   runOrder(a),
		}), nil

	case KindInvalidate:
		if r.target.DistributionID == nil {
			return nil, fmt.Errorf("action %s: no distribution to invalidate", a.Name)
		}
		spec := InvalidationBuildSpec()
		project := awscodebuild.NewPipelineProject(r.scope, jsii.String(naming.ConstructID(r.ctx.AppName, "invalidate-project-id")), &awscodebuild.PipelineProjectProps{
			EnvironmentVariables: &map[string]*awscodebuild.BuildEnvironmentVariable{
				DistributionIDEnvVar: {Value: r.target.DistributionID},
			},
			BuildSpec: awscodebuild.BuildSpec_FromObject(&spec),
		})
		account := awscdk.Stack_Of(r.scope).Account()
		project.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Resources: jsii.Strings(DistributionARN(*account, *r.target.DistributionID)),
			Actions:   jsii.Strings("cloudfront:CreateInvalidation"),
		}))
		return awscodepipelineactions.NewCodeBuildAction(&awscodepipelineactions.CodeBuildActionProps{
			ActionName: jsii.String(a.Name),
			Project:    project,
			Input:      r.artifact(a.Input),
			RunOrder:   runOrder(a),
		}), nil

	default:
		return nil, fmt.Errorf("action %s: unsupported kind %q", a.Name, a.Kind)
	}
}
