package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fixctl",
	Short: "Fixctl is a command line tool for interacting with the fixplane repair service",
	Long: `fixctl is the command-line interface for the fixplane automated repair service.

Fixplane clones a repository with failing tests, runs its test suite in a
sandbox, classifies the failures, applies minimal fixes on a dedicated branch
and verifies them in a bounded retry loop. Each run produces a deterministic
score and an iteration-by-iteration CI timeline.

Common workflows:

  Submit a repository for repair:
    fixctl submit --repo "https://github.com/team/broken.git" --team "team rocket" --leader "jessie"

  Check repair status:
    fixctl status <job-id>

  Watch a repair until it finishes:
    fixctl status <job-id> --watch

  List all repair jobs:
    fixctl list

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    FIXPLANE_API_URL    API endpoint (default: http://localhost:8000)
    FIXPLANE_TOKEN      GitHub token used for cloning and pushing`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".fixctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".fixctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "FIXPLANE_VARNAME"
	viper.SetEnvPrefix("FIXPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fixctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8000", "Fixplane Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "GitHub token used for cloning and pushing")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
