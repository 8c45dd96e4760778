package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var configWrite bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after defaults and environment overrides. With
--write it is saved to the --config path instead, which is a convenient way
to start a new configuration file.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configWrite, "write", false, "write the configuration to the --config path")
}

func runConfig(cmd *cobra.Command, _ []string) error {
	if configWrite {
		if err := cfg.Save(configPath); err != nil {
			return err
		}

		logger.Info("configuration written", zap.String("path", configPath))

		return nil
	}

	shown := *cfg
	if shown.API.APIKey != "" {
		shown.API.APIKey = "********"
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)

	if err := enc.Encode(&shown); err != nil {
		return err
	}

	return enc.Close()
}
