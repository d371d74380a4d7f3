package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

func configCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			out := *cfg
			if out.Auth.JWTSecret != "" {
				out.Auth.JWTSecret = redacted
			}
			if out.Database.DSN != "" {
				out.Database.DSN = redacted
			}

			data, err := yaml.Marshal(out)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
