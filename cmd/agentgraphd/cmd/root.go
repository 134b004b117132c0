// Package cmd wires the engine's composition root: a thin CLI around
// Run/Resume for manual operation. Config loading, the TUI, and the CLI
// surface itself are peripheral per the engine's own scope — this exists to
// exercise the domain stack end to end, not to be a product CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the agentgraphd entry point.
var rootCmd = &cobra.Command{
	Use:   "agentgraphd",
	Short: "Run and resume agentgraph workflow executions",
}

// Execute runs the CLI; errors are already formatted by cobra, so main only
// needs the exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .agentgraphd.yaml)")
	rootCmd.PersistentFlags().String("sessions-root", "./sessions", "filesystem session root for checkpoints")
	rootCmd.PersistentFlags().String("subagent-endpoint", "", "HTTP endpoint for the worker subagent pool (empty uses a mock worker)")
	rootCmd.PersistentFlags().Float64("subagent-rate", 2, "outbound requests/sec to the subagent endpoint")
	rootCmd.PersistentFlags().String("subagent-provider", "", "dispatch tasks to a chat model instead: anthropic, openai, or google (needs the matching *_API_KEY)")
	rootCmd.PersistentFlags().String("subagent-model", "", "model name for --subagent-provider (empty uses the provider's default)")

	_ = viper.BindPFlag("sessions_root", rootCmd.PersistentFlags().Lookup("sessions-root"))
	_ = viper.BindPFlag("subagent_endpoint", rootCmd.PersistentFlags().Lookup("subagent-endpoint"))
	_ = viper.BindPFlag("subagent_rate", rootCmd.PersistentFlags().Lookup("subagent-rate"))
	_ = viper.BindPFlag("subagent_provider", rootCmd.PersistentFlags().Lookup("subagent-provider"))
	_ = viper.BindPFlag("subagent_model", rootCmd.PersistentFlags().Lookup("subagent-model"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
}

func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".agentgraphd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("AGENTGRAPHD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "agentgraphd: config: %v\n", err)
		}
	}
}
