package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/metacat/internal/registry"
)

// ValidationResult is the validate command's JSON payload.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	EntityTypes     []string `json:"entity_types"`
	Classifications []string `json:"classifications"`
	TraitAttributes []string `json:"trait_attributes"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <registry-dir>",
		Short: "Validate a CUE type registry",
		Long: `Load the CUE entity and classification definitions in a directory and
report the trait attribute domain they produce.

Exit codes:
  0 - Registry valid
  1 - Registry invalid
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := registry.LoadDir(dir)
	if err != nil {
		return reportError(formatter, err)
	}

	result := ValidationResult{
		Valid:           true,
		EntityTypes:     reg.EntityTypes(),
		Classifications: reg.Classifications(),
		TraitAttributes: reg.TraitAttributes(),
	}
	for _, name := range result.EntityTypes {
		formatter.VerboseLog("entity type: %s", name)
	}
	for _, name := range result.Classifications {
		formatter.VerboseLog("classification: %s", name)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s Registry valid: %d entity type(s), %d classification(s)\n\n",
		passMark(), len(result.EntityTypes), len(result.Classifications))
	fmt.Fprintf(w, "Trait attributes: %s\n", strings.Join(result.TraitAttributes, ", "))
	return nil
}
