package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) contextCmd() *cobra.Command {
	var (
		output   string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the resolved deployment context",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, err := c.resolveFromFile()
			if err != nil {
				return err
			}
			if validate {
				if err := ctx.Validate(); err != nil {
					return err
				}
			}
			return writeDocument(c, output, ctx)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVar(&validate, "validate", false, "fail when required fields are missing")
	return cmd
}

func writeDocument(c *cli, format string, doc any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
