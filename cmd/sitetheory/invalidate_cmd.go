package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theory-cloud/sitetheory/pkg/invalidation"
)

func (c *cli) invalidateCmd() *cobra.Command {
	var (
		distributionID string
		paths          []string
		region         string
		profile        string
		wait           bool
	)

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Invalidate cached paths of a CloudFront distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(distributionID) == "" {
				return errors.New("--distribution-id is required")
			}

			client, err := c.newInvalidator(cmd.Context(),
				invalidation.WithRegion(region),
				invalidation.WithProfile(profile),
			)
			if err != nil {
				return err
			}

			inv, err := client.Create(cmd.Context(), distributionID, paths...)
			if err != nil {
				c.logger.Error("invalidation failed", map[string]any{
					"distribution_id": distributionID,
					"error":           err.Error(),
				})
				return err
			}
			c.logger.Info("invalidation created", map[string]any{
				"distribution_id": inv.DistributionID,
				"invalidation_id": inv.ID,
				"paths":           inv.Paths,
			})

			if wait {
				if inv, err = client.Wait(cmd.Context(), inv); err != nil {
					return err
				}
			}

			fmt.Fprintf(c.stdout, "%s\t%s\t%s\n", inv.ID, inv.Status, strings.Join(inv.Paths, ","))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&distributionID, "distribution-id", "", "CloudFront distribution id")
	flags.StringSliceVar(&paths, "path", nil, "path to invalidate, repeatable (default /*)")
	flags.StringVar(&region, "region", "", "AWS region")
	flags.StringVar(&profile, "profile", "", "shared config profile")
	flags.BoolVar(&wait, "wait", false, "wait for the invalidation to complete")
	return cmd
}
