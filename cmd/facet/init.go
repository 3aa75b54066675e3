package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet"
)

var (
	initProtocol string
	initID       string
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a facet repository",
	Long: `Initialize a file repository: repository.yaml, the base types under
types/base and an empty objects directory. An existing repository is left
as it is.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := repoFlag
		if path == "" {
			path = "."
		}

		repo, err := facet.Init(cmd.Context(), path,
			facet.WithProtocolVersion(facet.ProtocolVersion(initProtocol)),
			facet.WithRepositoryID(initID),
			facet.WithLogger(slog.Default()),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize repository: %w", err)
		}

		info, err := repo.RepositoryInfo(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized facet repository %s (protocol %s) in %s\n",
			info.ID, info.ProtocolVersion, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initProtocol, "protocol", string(facet.ProtocolV2), "Protocol version of a new repository (1.0 or 1.1)")
	initCmd.Flags().StringVar(&initID, "id", "", "Repository id (default: directory name)")
}
