package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/lostfound/internal/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lostfound",
		Short: "Campus lost & found service",
		Long: `lostfound runs the lost & found API: members post found and lost items
for their college and register claims on found items or matches on lost ones.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file path (default $"+config.PathEnv+" or ./lostfound.yaml)")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(initCmd(load))
	rootCmd.AddCommand(resyncCmd(load))
	rootCmd.AddCommand(configCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)
