package commands

import "github.com/spf13/cobra"

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the application version",
		Annotations: map[string]string{"config": "none"},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("tsctl version %s\n", Version)
		},
	}
}
