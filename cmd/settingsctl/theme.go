package main

import "github.com/spf13/cobra"

func newThemeCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or toggle the theme",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), svc.Theme.GetState())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.services(cmd.Context())
			if err != nil {
				return err
			}
			state, err := svc.Theme.ToggleTheme()
			if perr := printYAML(cmd.OutOrStdout(), state); perr != nil {
				return perr
			}
			return err
		},
	})
	return cmd
}
