package stack

import (
	"os"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/delivery"
	"github.com/theory-cloud/sitetheory/pkg/hosting"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/naming"
	"github.com/theory-cloud/sitetheory/pkg/observability"
)

const (
	TagApp         = "app"
	TagEnvironment = "environment"
	TagStage       = "stage"
)

type SiteStackProps struct {
	awscdk.StackProps

	Context config.Context

	// Logger defaults to the global logger.
	Logger observability.StructuredLogger
}

// SiteStack is one environment of a site: hosting plus its delivery pipeline.
type SiteStack struct {
	Stack    awscdk.Stack
	Context  config.Context
	Site     *hosting.Site
	Plan     delivery.Plan
	Pipeline *delivery.Pipeline
}

// NewSiteStack validates props.Context and declares the stack under scope. An empty id uses
// the context's stack name. Construct failures are returned, not raised.
func NewSiteStack(scope constructs.Construct, id string, props *SiteStackProps) (out *SiteStack, err error) {
	if props == nil {
		props = &SiteStackProps{}
	}
	ctx := props.Context
	if strings.TrimSpace(id) == "" {
		id = ctx.StackName()
	}

	log := logger.Or(props.Logger).
		WithApp(ctx.AppName).
		WithEnvironment(ctx.Environment).
		WithStack(id)

	if err := ctx.Validate(); err != nil {
		log.Error("invalid deployment context", map[string]any{"error": err.Error()})
		return nil, &Error{Code: ErrorCodeInvalidContext, Stack: id, Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fromPanic(id, r)
			log.Error("stack assembly failed", map[string]any{"error": err.Error()})
		}
	}()

	stackProps := props.StackProps
	if stackProps.Env == nil {
		stackProps.Env = Environment(ctx)
	}
	if stackProps.Description == nil {
		stackProps.Description = jsii.String("Static hosting and delivery pipeline for " + ctx.Subdomain())
	}

	stack := awscdk.NewStack(scope, jsii.String(id), &stackProps)
	tags := awscdk.Tags_Of(stack)
	tags.Add(jsii.String(TagApp), jsii.String(ctx.AppName), nil)
	tags.Add(jsii.String(TagEnvironment), jsii.String(ctx.Environment), nil)
	tags.Add(jsii.String(TagStage), jsii.String(naming.NormalizeStage(ctx.Environment)), nil)

	log.Info("resolved deployment context", ctx.LogFields())

	site := hosting.New(stack, ctx)
	log.Debug("declared hosting", map[string]any{"subdomain": site.Subdomain})

	plan := delivery.NewPlan(ctx)
	pipeline, err := delivery.Render(stack, ctx, plan, delivery.Target{
		Bucket:         site.Bucket,
		DistributionID: site.DistributionID(),
	})
	if err != nil {
		log.Error("pipeline rendering failed", map[string]any{"error": err.Error()})
		return nil, &Error{Code: ErrorCodeConstruct, Stack: id, Err: err}
	}
	log.Info("declared delivery pipeline", map[string]any{
		"pipeline": plan.PipelineName,
		"stages":   plan.StageNames(),
	})

	return &SiteStack{
		Stack:    stack,
		Context:  ctx,
		Site:     site,
		Plan:     plan,
		Pipeline: pipeline,
	}, nil
}

// Synth writes the cloud assembly for app. Validation failures raised by the construct
// library during synthesis are returned as *Error.
func Synth(app awscdk.App) error {
	return Guard("app", func() {
		app.Synth(nil)
	})
}

// Environment pins the stack to the context's account and region, falling back to the
// CDK CLI's defaults. The hosted zone lookup needs both.
func Environment(ctx config.Context) *awscdk.Environment {
	account := firstNonEmpty(ctx.Account, os.Getenv("CDK_DEFAULT_ACCOUNT"))
	region := firstNonEmpty(ctx.Region, os.Getenv("CDK_DEFAULT_REGION"))

	env := &awscdk.Environment{}
	if account != "" {
		env.Account = jsii.String(account)
	}
	if region != "" {
		env.Region = jsii.String(region)
	}
	return env
}

// NodeLookup reads context values from a construct node (cdk.json and --context flags).
func NodeLookup(node constructs.Node) config.Lookup {
	return func(key string) any {
		return node.TryGetContext(jsii.String(key))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
