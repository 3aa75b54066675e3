package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
)

var createCmd = &cobra.Command{
	Use:   "create <type[,aspect...]> [key=value...]",
	Short: "Create an object",
	Long: `Create an object of the given type. Aspects to apply at creation follow
the type id, separated by commas, e.g. cmis:document,P:cm:titled.
Values are parsed according to the property definitions.`,
	Example: `  facet create cmis:document,P:cm:titled cmis:name=report.pdf cm:title="Q3 report"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}

		primary, aspects := aspect.SplitObjectTypeID(args[0])
		types, err := definitions(cmd.Context(), h.Types, append([]string{primary}, aspects...))
		if err != nil {
			return err
		}
		props, err := values.typed(types)
		if err != nil {
			return err
		}
		props[core.PropObjectTypeID] = args[0]

		obj, err := h.Service.Create(cmd.Context(), props)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), obj.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
