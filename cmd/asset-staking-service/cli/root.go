package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	defaultConfigFileName      = "config.yml"
	defaultStakeParamsFileName = "stake-params.json"
)

var (
	cfgPath         string
	stakeParamsPath string
	replayFlag      bool
	rootCmd         = &cobra.Command{
		Use: "start-server",
	}
)

func Setup() error {
	homePath, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	defaultConfigPath := getDefaultConfigFile(homePath, defaultConfigFileName)
	defaultStakeParamsPath := getDefaultConfigFile(homePath, defaultStakeParamsFileName)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, fmt.Sprintf("config file (default %s)", defaultConfigPath))
	rootCmd.PersistentFlags().StringVar(&stakeParamsPath, "params", defaultStakeParamsPath, fmt.Sprintf("initial stake params file (default %s)", defaultStakeParamsPath))
	rootCmd.PersistentFlags().BoolVar(&replayFlag, "replay", false, "Replay unprocessable messages")
	if err := rootCmd.Execute(); err != nil {
		return err
	}

	return nil
}

func getDefaultConfigFile(homePath, filename string) string {
	return filepath.Join(homePath, filename)
}

func GetConfigPath() string {
	return cfgPath
}

func GetStakeParamsPath() string {
	return stakeParamsPath
}

func GetReplayFlag() bool {
	return replayFlag
}
