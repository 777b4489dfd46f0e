package delivery

import (
	"sort"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

const (
	StageSource  = "Source"
	StageBuild   = "BuildApp" // "Build" is reserved by the synth step of the pipelines module.
	StageApprove = "Approve"
	StageDeploy  = "DeployApp"

	ActionCheckout        = "Checkout"
	ActionApproval        = "ApprovalAction"
	ActionDeployApp       = "DeployApplication"
	ActionInvalidateCache = "InvalidateCache"
)

// ActionKind selects the CodePipeline action type an Action renders to.
type ActionKind string

const (
	KindSource     ActionKind = "codestar-source"
	KindBuild      ActionKind = "codebuild"
	KindApproval   ActionKind = "manual-approval"
	KindS3Deploy   ActionKind = "s3-deploy"
	KindInvalidate ActionKind = "cloudfront-invalidate"
)

// Artifact is an opaque handle passed between actions by name.
type Artifact struct {
	Name string `json:"name" yaml:"name"`
}

// Action is one step within a stage.
//
// RunOrder orders actions within a stage; zero means "declaration order".
type Action struct {
	Name     string     `json:"name" yaml:"name"`
	Kind     ActionKind `json:"kind" yaml:"kind"`
	RunOrder int        `json:"runOrder,omitempty" yaml:"runOrder,omitempty"`
	Input    string     `json:"input,omitempty" yaml:"input,omitempty"`
	Outputs  []string   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

type Stage struct {
	Name    string   `json:"name" yaml:"name"`
	Actions []Action `json:"actions" yaml:"actions"`
}

// OrderedActions returns the actions sorted by RunOrder. Actions without a run order keep
// their declaration position relative to each other and run in the first slot.
func (s Stage) OrderedActions() []Action {
	out := make([]Action, len(s.Actions))
	copy(out, s.Actions)
	sort.SliceStable(out, func(i, j int) bool {
		return effectiveRunOrder(out[i]) < effectiveRunOrder(out[j])
	})
	return out
}

func effectiveRunOrder(a Action) int {
	if a.RunOrder <= 0 {
		return 1
	}
	return a.RunOrder
}

// Plan is the declarative shape of the delivery pipeline for one context.
type Plan struct {
	PipelineName   string   `json:"pipelineName" yaml:"pipelineName"`
	SourceArtifact Artifact `json:"sourceArtifact" yaml:"sourceArtifact"`
	BuildArtifact  Artifact `json:"buildArtifact" yaml:"buildArtifact"`
	Stages         []Stage  `json:"stages" yaml:"stages"`
	Synth          Synth    `json:"synth" yaml:"synth"`
}

// Synth is the self-mutation step that regenerates the pipeline from the source artifact.
type Synth struct {
	Input                  string   `json:"input" yaml:"input"`
	InstallCommands        []string `json:"installCommands" yaml:"installCommands"`
	Commands               []string `json:"commands" yaml:"commands"`
	PrimaryOutputDirectory string   `json:"primaryOutputDirectory" yaml:"primaryOutputDirectory"`
}

// NewPlan builds the stage list for ctx. The approval stage is appended only for production
// contexts; every other stage is unconditional.
func NewPlan(ctx config.Context) Plan {
	source := Artifact{Name: naming.SourceArtifactName(ctx.AppName)}
	build := Artifact{Name: naming.BuildArtifactName(ctx.AppName)}

	stages := []Stage{
		{
			Name: StageSource,
			Actions: []Action{
				{Name: ActionCheckout, Kind: KindSource, Outputs: []string{source.Name}},
			},
		},
		{
			Name: StageBuild,
			Actions: []Action{
				{Name: naming.BuildActionName(ctx.AppName), Kind: KindBuild, Input: source.Name, Outputs: []string{build.Name}},
			},
		},
	}

	if ctx.IsProd {
		stages = append(stages, Stage{
			Name:    StageApprove,
			Actions: []Action{{Name: ActionApproval, Kind: KindApproval}},
		})
	}

	stages = append(stages, Stage{
		Name: StageDeploy,
		Actions: []Action{
			{Name: ActionDeployApp, Kind: KindS3Deploy, RunOrder: 1, Input: build.Name},
			{Name: ActionInvalidateCache, Kind: KindInvalidate, RunOrder: 2, Input: build.Name},
		},
	})

	return Plan{
		PipelineName:   naming.PipelineID(ctx.AppName),
		SourceArtifact: source,
		BuildArtifact:  build,
		Stages:         stages,
		Synth:          NewSynth(ctx, source),
	}
}

// NewSynth returns the self-mutation step. It rebuilds this CDK app from the checked-out
// repository and re-synthesizes it for the same environment.
func NewSynth(ctx config.Context, input Artifact) Synth {
	dir := ctx.InfraDirectory()
	return Synth{
		Input:           input.Name,
		InstallCommands: []string{"npm install -g aws-cdk"},
		Commands: []string{
			"cd " + dir,
			"go mod download",
			"npx cdk synth --context " + config.EnvNameKey + "=" + ctx.Environment,
		},
		PrimaryOutputDirectory: dir + "/cdk.out",
	}
}

func (p Plan) StageNames() []string {
	names := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		names[i] = s.Name
	}
	return names
}

func (p Plan) Stage(name string) (Stage, bool) {
	for _, s := range p.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}
