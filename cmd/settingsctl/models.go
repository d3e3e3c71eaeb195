package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"braindrive-settings/internal/models"
	"braindrive-settings/internal/services"
)

func newModelsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List, install and delete models on a server",
	}

	var page, pageSize int
	list := &cobra.Command{
		Use:   "list <server-id>",
		Short: "List the models installed on a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Models.ListModels(args[0], page, pageSize)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), result)
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page to show")
	list.Flags().IntVar(&pageSize, "page-size", 10, "models per page")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "install <server-id> <model>",
		Short: "Install a model and wait until it is listed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			op, err := svc.Models.InstallModel(args[0], args[1])
			if err != nil {
				return err
			}
			services.WaitForInstalls(svc.Models)
			for _, o := range svc.Models.Operations() {
				if o.ID == op.ID {
					op = o
				}
			}
			if err := printYAML(cmd.OutOrStdout(), op); err != nil {
				return err
			}
			if op.State != models.InstallCompleted {
				return fmt.Errorf("install %s ended as %s", args[1], op.State)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <server-id> <model>",
		Short: "Delete a model from a server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			op, err := svc.Models.DeleteModel(args[0], args[1])
			if perr := printYAML(cmd.OutOrStdout(), op); perr != nil {
				return perr
			}
			return err
		},
	})
	return cmd
}
