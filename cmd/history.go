package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	service "github.com/okian/shotboard/internal/app"
	"github.com/okian/shotboard/internal/domain/model"
)

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse finished tournaments",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List finished tournaments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.svc.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(c.out, "no finished tournaments")
				return nil
			}
			w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFINISHED\tSHAPE\tSHOOTERS\tWINNER")
			for _, e := range entries {
				winner := "-"
				if len(e.Results) > 0 {
					winner = fmt.Sprintf("%s (%d)", e.Results[0].Name, e.Results[0].TotalScore)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					e.Timestamp, humanize.RelTime(e.Date, c.now(), "ago", "from now"), e.Config, e.ParticipantCount, winner)
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show the results of a finished tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamp(args[0])
			if err != nil {
				return err
			}
			e, err := c.svc.HistoryEntry(cmd.Context(), ts)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "finished %s (%s)\n", e.Date.Local().Format(time.DateTime), humanize.RelTime(e.Date, c.now(), "ago", "from now"))
			return printBoard(c.out, entryBoard(e))
		},
	}

	view := &cobra.Command{
		Use:   "view ID",
		Short: "Load a finished tournament as the active one, e.g. to export it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamp(args[0])
			if err != nil {
				return err
			}
			e, err := c.svc.ViewHistory(cmd.Context(), ts)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "viewing tournament %d\n", e.Timestamp)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a finished tournament",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamp(args[0])
			if err != nil {
				return err
			}
			if err := c.svc.DeleteHistory(cmd.Context(), ts); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted tournament %d\n", ts)
			return nil
		},
	}

	cmd.AddCommand(list, show, view, remove)
	return cmd
}

func parseTimestamp(arg string) (int64, error) {
	ts, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || ts <= 0 {
		return 0, fmt.Errorf("tournament id %q must be a positive number", arg)
	}
	return ts, nil
}

func entryBoard(e model.HistoryEntry) service.Board {
	b := service.Board{
		Phase:     model.PhaseFinished,
		Config:    e.Config,
		Sheet:     e.Scores,
		Standings: e.Results,
	}
	for _, r := range e.Results {
		b.Participants = append(b.Participants, model.Participant{ID: r.ParticipantID, Name: r.Name})
	}
	return b
}
