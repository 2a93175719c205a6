package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/roster"
)

func newRosterCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the shooters and who takes part in the next tournament",
	}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List shooters, marking the selected ones",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.printRoster(c.svc.FindParticipants(query))
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "only show names containing this text")

	add := &cobra.Command{
		Use:   "add NAME...",
		Short: "Add shooters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				p, err := c.svc.AddParticipant(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("add %q: %w", name, err)
				}
				fmt.Fprintf(c.out, "added %s (%s)\n", p.Name, p.ID)
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove SHOOTER",
		Aliases: []string{"rm"},
		Short:   "Remove a shooter by id or name",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.resolveParticipant(args[0])
			if err != nil {
				return err
			}
			p, err := c.svc.RemoveParticipant(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "removed %s\n", p.Name)
			return nil
		},
	}

	selectCmd := &cobra.Command{
		Use:   "select SHOOTER...",
		Short: "Select exactly these shooters, in this order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := c.resolveParticipant(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := c.svc.SelectParticipants(cmd.Context(), ids); err != nil {
				return err
			}
			return c.printRoster(c.svc.SelectedParticipants())
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle SHOOTER",
		Short: "Select or deselect one shooter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.resolveParticipant(args[0])
			if err != nil {
				return err
			}
			on, err := c.svc.ToggleParticipant(cmd.Context(), id)
			if err != nil {
				return err
			}
			state := "deselected"
			if on {
				state = "selected"
			}
			fmt.Fprintf(c.out, "%s %s\n", state, args[0])
			return nil
		},
	}

	var allQuery string
	toggleAll := &cobra.Command{
		Use:   "toggle-all",
		Short: "Select every listed shooter, or clear the selection if all are selected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.svc.ToggleAll(cmd.Context(), allQuery); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%d selected\n", len(c.svc.SelectedParticipants()))
			return nil
		},
	}
	toggleAll.Flags().StringVarP(&allQuery, "query", "q", "", "only consider names containing this text")

	cmd.AddCommand(list, add, remove, selectCmd, toggle, toggleAll)
	return cmd
}

// resolveParticipant accepts an id or a name, ignoring case.
func (c *cli) resolveParticipant(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	var byName []model.Participant
	for _, p := range c.svc.Participants() {
		if p.ID == arg {
			return p.ID, nil
		}
		if strings.EqualFold(p.Name, arg) {
			byName = append(byName, p)
		}
	}
	if len(byName) == 1 {
		return byName[0].ID, nil
	}
	return "", fmt.Errorf("%q: %w", arg, roster.ErrNotFound)
}

func (c *cli) printRoster(ps []model.Participant) error {
	selected := make(map[string]int)
	for i, p := range c.svc.SelectedParticipants() {
		selected[p.ID] = i + 1
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PICK\tNAME\tID")
	for _, p := range ps {
		pick := ""
		if n, ok := selected[p.ID]; ok {
			pick = fmt.Sprintf("#%d", n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", pick, p.Name, p.ID)
	}
	return w.Flush()
}
