package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"renamer/internal/config"
	"renamer/internal/deps"
)

func newDoctorCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Default(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				state := "ok"
				if !st.Available {
					state = "missing"
					if st.Optional {
						state = "missing (optional)"
					}
				}
				detail := st.Detail
				if detail == "" {
					detail = st.Description
				}
				rows = append(rows, []string{st.Name, st.Command, state, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Command", "Status", "Detail"}, rows, nil))

			if !deps.AllRequiredAvailable(statuses) {
				return fmt.Errorf("required dependencies are missing")
			}
			return nil
		},
	}
}
