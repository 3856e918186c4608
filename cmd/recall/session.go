package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the conversation session counter",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "current",
			Short: "Print the current session number",
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, _, _, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				session, err := store.CurrentSession(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Println(session)
				return nil
			},
		},
		&cobra.Command{
			Use:   "new",
			Short: "Start a new conversation session",
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, _, _, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer store.Close()

				session, err := store.BeginSession(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Session %d started.\n", session)
				return nil
			},
		},
	)
	return cmd
}
