package main

import (
	"context"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/stack"
)

func (c *cli) synth(_ context.Context) error {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	lookup := stack.NodeLookup(app.Node())

	envName := c.envName
	if envName == "" {
		envName = config.EnvName(lookup(config.EnvNameKey))
	}

	var (
		ctx config.Context
		err error
	)
	if c.configFile != "" {
		var tables config.Tables
		tables, err = config.LoadFile(c.configFile)
		if err == nil {
			ctx, err = config.Resolve(envName, tables)
		}
	} else {
		ctx, err = config.ResolveLookup(lookup, envName)
	}
	if err != nil {
		c.logger.Error("cannot resolve deployment context", map[string]any{
			"environment": envName,
			"error":       err.Error(),
		})
		return err
	}

	if _, err := stack.NewSiteStack(app, c.stackName, &stack.SiteStackProps{
		Context: ctx,
		Logger:  c.logger,
	}); err != nil {
		return err
	}

	return stack.Synth(app)
}
