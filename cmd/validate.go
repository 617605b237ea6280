package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/vlantag/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a tag profile file",
	Long: `Validate a tag profile file without encoding anything.

Every profile must have a unique name and one or two tags whose priority code
point and vlan identifier are in range.

Examples:
  vlantag validate -f profiles.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := validateProfileFile
		if path == "" {
			path = globalConfig.Profiles
		}
		if path == "" {
			return fmt.Errorf("no profile file given (-f or vlantag.profiles)")
		}
		return runValidate(path, cmd.OutOrStdout())
	},
}

var validateProfileFile string

func init() {
	validateCmd.Flags().StringVarP(&validateProfileFile, "file", "f", "",
		"tag profile file to validate (default vlantag.profiles)")
}

func runValidate(path string, w io.Writer) error {
	ps, err := config.LoadProfiles(path)
	if err != nil {
		return fmt.Errorf("INVALID: %w", err)
	}

	double := 0
	for _, p := range ps.Profiles {
		if len(p.Tags) == 2 {
			double++
		}
	}
	_, err = fmt.Fprintf(w, "VALID: %d profile(s), %d single, %d double\n",
		len(ps.Profiles), len(ps.Profiles)-double, double)
	return err
}
