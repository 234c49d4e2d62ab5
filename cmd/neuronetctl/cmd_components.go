package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"neuronet/internal/config"
)

func newComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List environments and the encoders and decoders they accept",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			client, err := newClient(cmd, config.Default())
			if err != nil {
				return err
			}
			defer client.Close()

			infos := client.Components()
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			out := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(out, "%s\n", info.Environment)
				fmt.Fprintf(out, "  encoders: %s\n", strings.Join(info.Encoders, ", "))
				fmt.Fprintf(out, "  decoders: %s\n", strings.Join(info.Decoders, ", "))
			}
			return nil
		},
	}
}
