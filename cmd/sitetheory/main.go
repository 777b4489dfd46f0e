package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/invalidation"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	obszap "github.com/theory-cloud/sitetheory/pkg/observability/zap"
)

const defaultContextFile = "cdk.json"

type cli struct {
	stdout io.Writer
	stderr io.Writer

	envName    string
	configFile string
	stackName  string

	logger         observability.StructuredLogger
	newInvalidator func(ctx context.Context, opts ...invalidation.Option) (invalidation.Client, error)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{
		stdout:         stdout,
		stderr:         stderr,
		newInvalidator: invalidation.NewClient,
	}
	return c.execute(ctx, args)
}

func (c *cli) execute(ctx context.Context, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(ctx)
	c.flush(ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "sitetheory: FAIL: %v\n", err)
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitetheory",
		Short: "Static site hosting and delivery pipeline on AWS",
		Long: `sitetheory is a CDK app. Run without a subcommand (as cdk.json's "app") it synthesizes
the hosting stack and its self-mutating delivery pipeline for the environment selected by
ENV_NAME (--context ENV_NAME=<env>) or --env.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.synth(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.envName, "env", "e", "", "environment to resolve (default: ENV_NAME context, then development)")
	flags.StringVarP(&c.configFile, "config", "c", "", "context file (.json, .yaml, .yml, .toml); defaults to the CDK context")
	root.Flags().StringVar(&c.stackName, "stack", "", "stack id (default <app>-<stage>)")

	root.AddCommand(c.contextCmd())
	root.AddCommand(c.planCmd())
	root.AddCommand(c.invalidateCmd())
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.logger != nil {
		return nil
	}
	l, err := obszap.NewFromEnvironment(cmd.Context(), obszap.WithOutput(c.stderr))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.logger = l
	logger.SetLogger(l)
	return nil
}

// flush drains pending error notifications before the process exits.
func (c *cli) flush(ctx context.Context) {
	if c.logger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = c.logger.Flush(ctx)
}

// resolveFromFile resolves the context outside of a CDK app, from --config or ./cdk.json.
// The environment is --env, then the document's ENV_NAME, then development.
func (c *cli) resolveFromFile() (config.Context, error) {
	path := c.configFile
	if path == "" {
		path = defaultContextFile
	}
	tables, err := config.LoadFile(path)
	if err != nil {
		return config.Context{}, err
	}
	envName := c.envName
	if envName == "" {
		envName = tables.Selected
	}
	return config.Resolve(config.EnvName(envName), tables)
}
