package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
)

var (
	typesMatch     string
	typesSecondary bool
	typeJSON       bool
)

// typeLister is implemented by the bundled adapters.
type typeLister interface {
	Types() []*core.TypeDefinition
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the type catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		lister, ok := h.Repository.(typeLister)
		if !ok {
			return fmt.Errorf("repository cannot list its types")
		}
		if typesMatch != "" && !doublestar.ValidatePattern(typesMatch) {
			return fmt.Errorf("invalid pattern %q", typesMatch)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBASE\tPARENT\tPROPERTIES")
		for _, t := range lister.Types() {
			if typesSecondary && !t.IsSecondary() {
				continue
			}
			if typesMatch != "" {
				if ok, _ := doublestar.Match(typesMatch, t.ID); !ok {
					continue
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", t.ID, t.BaseTypeID, t.ParentTypeID, len(t.PropertyDefinitions))
		}
		return w.Flush()
	},
}

// typeView adds the resolved mandatory aspects to a definition.
type typeView struct {
	core.TypeDefinition `yaml:",inline"`
	Mandatory           []string `json:"resolvedMandatoryAspects,omitempty" yaml:"resolvedMandatoryAspects,omitempty"`
}

var typeCmd = &cobra.Command{
	Use:   "type <id>",
	Short: "Show a type definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openRepo(cmd)
		if err != nil {
			return err
		}
		def, err := h.Types.GetTypeDefinition(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), typeView{
			TypeDefinition: *def,
			Mandatory:      aspect.MandatoryAspects(def),
		}, typeJSON)
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(typeCmd)
	typesCmd.Flags().StringVar(&typesMatch, "match", "", "Only list type ids matching the glob (e.g. 'P:cm:*')")
	typesCmd.Flags().BoolVar(&typesSecondary, "aspects", false, "Only list aspects (secondary types)")
	typeCmd.Flags().BoolVar(&typeJSON, "json", false, "Output in JSON format")
}
