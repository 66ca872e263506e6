package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"gong-export-go/internal/pipeline"
)

func newConnectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Check credentials and list users, trackers and workspaces",
		Long: `Connect validates the credential against the Gong API and prints the
users, trackers, workspaces and derived internal email domains as JSON.

Users, trackers and workspaces that cannot be read are reported as warnings;
only rejected credentials fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			sess, err := pipeline.Connect(cmd.Context(), client, a.log)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sess.Result())
		},
	}
}
