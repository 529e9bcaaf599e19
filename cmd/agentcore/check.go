package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arjunkade/agentcore/internal/config"
)

func buildCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Resolve(configPath, ".")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			warnings, err := config.Validate(cfg)
			if err != nil {
				return err
			}

			if path == "" {
				fmt.Println("no config file found; using built-in defaults")
			} else {
				fmt.Printf("loaded config from %s\n", path)
			}
			for _, w := range warnings {
				fmt.Printf("warning: %s\n", w)
			}
			if len(warnings) == 0 {
				fmt.Println("configuration OK")
			}
			return nil
		},
	}
}
