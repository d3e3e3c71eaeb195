package main

import (
	"github.com/spf13/cobra"

	"braindrive-settings/internal/models"
)

func newServersCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the model servers BrainDrive connects to",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), svc.Servers.ListServers())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "test <server-id>",
		Short: "Check that the host can reach a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			state, testErr := svc.Servers.TestConnection(args[0])
			result := struct {
				Server  string                  `yaml:"server"`
				Status  models.ConnectionStatus `yaml:"status"`
				Message string                  `yaml:"message"`
			}{Server: args[0], Message: state.Messages[args[0]]}
			for _, srv := range state.Servers {
				if srv.ID == args[0] {
					result.Status = srv.ConnectionStatus
				}
			}
			if result.Message == "" && testErr != nil {
				result.Message = testErr.Error()
			}
			if err := printYAML(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return testErr
		},
	})
	return cmd
}
