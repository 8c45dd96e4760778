package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"app-reconciler/internal/fulcrum"
	"app-reconciler/internal/schema"
)

var (
	flattenForm  formFlags
	flattenAll   bool
	flattenNames bool
	flattenFind  string
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "List the fields of a form",
	Long: `Prints the leaf fields of a form in document order. Sections are inlined;
with --all, repeatables are listed too. --find looks up the key of a single
field, containers included.`,
	RunE: runFlatten,
}

func init() {
	flattenForm.register(flattenCmd)
	flattenCmd.Flags().BoolVar(&flattenAll, "all", false, "include repeatable fields")
	flattenCmd.Flags().BoolVar(&flattenNames, "names", false, "print data names only, one per line")
	flattenCmd.Flags().StringVar(&flattenFind, "find", "", "print the key of the field with this data name")
}

func runFlatten(cmd *cobra.Command, _ []string) error {
	var client *fulcrum.Client

	if flattenForm.name != "" {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		client = c
	}

	form, err := flattenForm.load(cmd.Context(), client)
	if err != nil {
		return err
	}

	if flattenFind != "" {
		key, ok := schema.FindKey(form.Elements, flattenFind)
		if !ok {
			return fmt.Errorf("no field with data name %q", flattenFind)
		}

		fmt.Fprintln(cmd.OutOrStdout(), key)

		return nil
	}

	fields := schema.Leaves(form.Elements)
	if flattenAll {
		fields = schema.Flatten(form.Elements)
	}

	if flattenNames {
		for _, name := range schema.DataNames(fields) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}

		return schema.CheckDuplicates(form.Elements)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tDATA NAME\tTYPE")

	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Key, f.DataName, f.TypeName)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	return schema.CheckDuplicates(form.Elements)
}
