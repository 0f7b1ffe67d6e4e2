package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func courseCmd(env *Env, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Manage courses",
	}
	cmd.AddCommand(courseAddCmd(env, g))
	return cmd
}

func courseAddCmd(env *Env, g *globalFlags) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a course",
		Example: `  lecturequiz course add "Operating Systems" -d "Fall semester"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, env, g)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.store.CreateCourse(ctx, args[0], description)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(env.Stdout, "Course %d created: %s\n", c.ID, c.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Course description")
	return cmd
}
