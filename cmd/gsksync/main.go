package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/systmms/gsksync/cmd/gsksync/commands"
	"github.com/systmms/gsksync/internal/config"
	"github.com/systmms/gsksync/internal/logging"
	"github.com/systmms/gsksync/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		secure.Purge()
		os.Exit(1)
	}
	secure.Purge()
}

func run() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
		project        string
		namespace      string
		kubeContext    string
		artifactDir    string
		timeout        time.Duration
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "gsksync",
		Short: "Synchronize secrets between Google Secret Manager and Kubernetes",
		Long: `gsksync keeps key-value secrets in step between Google Secret Manager
and a Kubernetes cluster, driving the gcloud and kubectl CLIs so the
credentials and contexts you already use keep working.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Path = configFile
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive
			cfg.Project = project
			cfg.Namespace = namespace
			cfg.KubeContext = kubeContext
			cfg.ArtifactDir = artifactDir
			cfg.Timeout = timeout
		},
	}

	// Earlier releases spelled flags with underscores (--secret_id);
	// normalize them to the dashed form so both keep working.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "gsksync.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "Google Cloud project (defaults to the active gcloud project)")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Kubernetes namespace (defaults to the current kubectl namespace)")
	rootCmd.PersistentFlags().StringVar(&kubeContext, "context", "", "Kubernetes context (defaults to the current kubectl context)")
	rootCmd.PersistentFlags().StringVar(&artifactDir, "artifact-dir", "", "Write intermediate secret documents to this directory")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Timeout for each gcloud/kubectl invocation")

	// Add commands
	rootCmd.AddCommand(
		commands.NewCreateCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewUpdateCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewSyncCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd
}
