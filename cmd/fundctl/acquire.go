package main

import (
	"github.com/spf13/cobra"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/validation"
)

func newAcquireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "acquire [symbols...]",
		Short: "Fetch normalized fund records",
		Long: `Fetch quotes for the given symbols and print the normalized fund records as JSON.
Without symbols the configured universe is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateSymbols(args); err != nil {
				return err
			}

			a, _, err := loadApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			funds, err := a.Acquisition.Acquire(cmd.Context(), args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), funds)
		},
	}
}
