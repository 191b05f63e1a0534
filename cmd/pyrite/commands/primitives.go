package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pyrite/internal/ir"
	"pyrite/internal/primitives"
)

var primitivesCmd = &cobra.Command{
	Use:   "primitives",
	Short: "List the registered primitive operations",
	Run: func(cmd *cobra.Command, args []string) {
		registry := primitives.NewRegistry()
		for _, desc := range registry.AllDescriptions() {
			argTypes := make([]string, len(desc.ArgTypes))
			for i, t := range desc.ArgTypes {
				argTypes[i] = t.String()
			}
			result := "void"
			if desc.ResultType != nil {
				result = desc.ResultType.String()
			}
			varArg := ""
			if desc.IsVarArg {
				varArg = ", ..."
			}
			fmt.Printf("%-14s (%s%s) -> %-10s err=%-6s priority=%d\n",
				desc.Name, strings.Join(argTypes, ", "), varArg, result,
				errorKindName(desc.ErrorKind), desc.Priority)
		}
	},
}

func errorKindName(kind int) string {
	switch kind {
	case ir.ErrNever:
		return "never"
	case ir.ErrMagic:
		return "magic"
	case ir.ErrFalse:
		return "false"
	}
	return fmt.Sprintf("%d", kind)
}

func init() {
	rootCmd.AddCommand(primitivesCmd)
}
