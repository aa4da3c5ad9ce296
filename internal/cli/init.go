package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Joel31000/CarbonConsult/internal/config"
)

func newInitCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a project-local .carbonconsult directory",
		Long: `Creates <dir>/.carbonconsult/ (default: the current directory) with a
default config.yaml and a .gitignore that keeps local submissions and logs out
of version control. Existing files are left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			} else if wd, err := os.Getwd(); err == nil {
				root = wd
			}
			dir, err := config.InitProject(cmd.Context(), root)
			if err != nil {
				return err
			}
			cmd.Printf("Project configuration ready in %s\n", dir)
			return nil
		},
	}
}
