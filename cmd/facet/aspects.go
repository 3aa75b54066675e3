package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/pkg/core"
)

var (
	addSet  []string
	addJSON bool
	rmJSON  bool
)

var addAspectCmd = &cobra.Command{
	Use:   "add-aspect <objectId> <aspectId>...",
	Short: "Apply aspects to an object",
	Long: `Apply aspects to an object, optionally setting properties they define.
Aspects the object already carries are kept; when nothing changes the
repository is not called.`,
	Example: `  facet add-aspect 3f2a... P:cm:titled --set cm:title=Report`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		values, err := parseAssignments(addSet)
		if err != nil {
			return err
		}
		obj, err := getObject(cmd.Context(), h, args[0])
		if err != nil {
			return err
		}

		var props core.Properties
		if !values.empty() {
			types, err := objectTypes(cmd.Context(), h, obj, args[1:])
			if err != nil {
				return err
			}
			if props, err = values.typed(types); err != nil {
				return err
			}
		}

		updated, err := h.Service.AddAspectsWithProperties(cmd.Context(), obj, args[1:], props)
		if err != nil {
			return err
		}
		reportVersion(cmd, obj, updated)
		return printObject(cmd, h, updated, addJSON)
	},
}

var removeAspectCmd = &cobra.Command{
	Use:   "remove-aspect <objectId> <aspectId>...",
	Short: "Remove aspects from an object",
	Long: `Remove aspects from an object. Aspects the object does not carry are
ignored; when nothing changes the repository is not called.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		obj, err := getObject(cmd.Context(), h, args[0])
		if err != nil {
			return err
		}
		updated, err := h.Service.RemoveAspects(cmd.Context(), obj, args[1:]...)
		if err != nil {
			return err
		}
		reportVersion(cmd, obj, updated)
		return printObject(cmd, h, updated, rmJSON)
	},
}

// reportVersion tells the user when an update produced a new object id.
func reportVersion(cmd *cobra.Command, before, after core.Object) {
	if before.ID != after.ID {
		fmt.Fprintf(cmd.ErrOrStderr(), "new version: %s -> %s\n", before.ID, after.ID)
	}
}

func init() {
	rootCmd.AddCommand(addAspectCmd)
	rootCmd.AddCommand(removeAspectCmd)
	addAspectCmd.Flags().StringArrayVar(&addSet, "set", nil, "Property to set, as key=value (repeatable)")
	addAspectCmd.Flags().BoolVar(&addJSON, "json", false, "Output in JSON format")
	removeAspectCmd.Flags().BoolVar(&rmJSON, "json", false, "Output in JSON format")
}
