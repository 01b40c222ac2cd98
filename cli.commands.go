package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running the binary
// without subcommand starts the api server.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookstore-api",
		Short: "bookstore-api serves a books catalog over http",
		Long: `bookstore-api exposes CRUD endpoints for books on top of mongodb,
redis or boltdb. Settings are read from ./config.yml then overridden
by ./config.env and the BSAP_ prefixed environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.AddCommand(newServeCmd(), newTokenCmd(), newVersionCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the api server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return fmt.Errorf("failed to setup app configuration: %s", err)
	}
	app, err := NewApp(config)
	if err != nil {
		return fmt.Errorf("application failed to initialized: %s", err)
	}
	return app.Run()
}

// newTokenCmd builds the command which signs an access token with the
// configured secret. It is the way operators provide credentials to clients.
func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for the books mutation endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return fmt.Errorf("subject must not be empty")
			}
			config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
			if err != nil {
				return fmt.Errorf("failed to setup app configuration: %s", err)
			}
			token, err := NewAuthenticator(&config.Auth, NewClock(config.IsProduction)).Issue(subject, ttl)
			if err != nil {
				return fmt.Errorf("failed to issue token: %s", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Identity carried by the token (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.token_ttl setting)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build infos",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tag: %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s\n",
				GitTag, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
