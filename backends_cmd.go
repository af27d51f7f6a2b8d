package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dgnsrekt/mailreader/internal/tts"
	"github.com/spf13/cobra"
)

var backendsVerbose bool

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the speech backends and whether they can be used",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		current := a.backend()
		statuses := a.registry.Availability(cmd.Context())
		fmt.Println(backendsTable(statuses, current))

		if backendsVerbose {
			for _, s := range statuses {
				if s.Available {
					continue
				}
				fmt.Println()
				fmt.Println(lipgloss.NewStyle().Bold(true).Render(s.ID))
				fmt.Println(tts.Guidance(s.ID))
			}
		}
		return nil
	},
}

func backendsTable(statuses []tts.Status, current string) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("", "ID", "NAME", "STATUS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, s := range statuses {
		mark := ""
		if s.ID == current {
			mark = "*"
		}
		status := keyword("available")
		if !s.Available {
			status = failure("unavailable")
			if s.Err != nil {
				status = failure(s.Err.Error())
			}
		}
		t.Row(mark, s.ID, s.Name, status)
	}
	return t.Render()
}

func init() {
	backendsCmd.Flags().BoolVarP(&backendsVerbose, "verbose", "v", false, "show install instructions for unavailable backends")
}
