package main

import (
	"github.com/spf13/cobra"
)

var setJSON bool

var setCmd = &cobra.Command{
	Use:   "set <objectId> key=value...",
	Short: "Update properties of an object",
	Long: `Update properties of an object. Properties may belong to the primary
type or to any aspect the object carries; the request is split and sent in
the form the repository's protocol expects. key= clears a property.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		obj, err := getObject(cmd.Context(), h, args[0])
		if err != nil {
			return err
		}
		types, err := objectTypes(cmd.Context(), h, obj, nil)
		if err != nil {
			return err
		}
		props, err := values.typed(types)
		if err != nil {
			return err
		}

		updated, err := h.Service.UpdateProperties(cmd.Context(), obj, props)
		if err != nil {
			return err
		}
		reportVersion(cmd, obj, updated)
		return printObject(cmd, h, updated, setJSON)
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().BoolVar(&setJSON, "json", false, "Output in JSON format")
}
