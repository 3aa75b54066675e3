package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/pkg/core"
)

var (
	objectsType string
	objectsJSON bool
	showJSON    bool
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List the objects of the repository with their aspects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		lister, ok := h.Repository.(core.ObjectLister)
		if !ok {
			return fmt.Errorf("repository cannot list its objects")
		}
		objects, err := lister.ListObjects(cmd.Context(), h.Service.Info().ID)
		if err != nil {
			return err
		}

		var views []objectView
		for _, obj := range objects {
			if objectsType != "" && obj.TypeID != objectsType {
				continue
			}
			m, err := h.Service.Materialize(cmd.Context(), obj)
			if err != nil {
				return fmt.Errorf("object %s: %w", obj.ID, err)
			}
			views = append(views, newObjectView(m, false))
		}

		if objectsJSON {
			return printValue(cmd.OutOrStdout(), views, true)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tNAME\tASPECTS")
		for _, v := range views {
			name, _ := v.Properties[core.PropName].(string)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Type, name, strings.Join(v.Aspects, ","))
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <objectId>",
	Short: "Show an object with its aspects and properties",
	Long: `Show an object with its aspects and normalized properties.
With --verbose the raw extension elements are printed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		obj, err := getObject(cmd.Context(), h, args[0])
		if err != nil {
			return err
		}
		return printObject(cmd, h, obj, showJSON)
	},
}

func init() {
	rootCmd.AddCommand(objectsCmd)
	rootCmd.AddCommand(showCmd)
	objectsCmd.Flags().StringVar(&objectsType, "type", "", "Only list objects of this primary type")
	objectsCmd.Flags().BoolVar(&objectsJSON, "json", false, "Output in JSON format")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
