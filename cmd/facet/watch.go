package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	facetlifecycle "github.com/aretw0/facet/pkg/adapters/lifecycle"
	"github.com/aretw0/facet/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the type catalog and report changes",
	Long: `Watch the types directory and reload the catalog whenever a definition
file changes. Every reload is printed. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		w, ok := h.Repository.(facetlifecycle.Watcher)
		if !ok {
			return fmt.Errorf("repository cannot be watched")
		}

		src := facetlifecycle.NewSource(w, slog.Default())
		if err := src.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for catalog changes\n", h.Service.Info().ID)

		for e := range src.Events() {
			// The type cache is invalidated by the repository callback.
			if ce, ok := e.(core.Event); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ce.Type, ce.Path, strings.Join(ce.Types, ","))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
