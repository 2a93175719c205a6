package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/shotboard/internal/app"
	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/scoring"
	"github.com/okian/shotboard/internal/domain/tournament"
)

func newSessionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Run the active tournament",
	}

	var targets, shots int
	configure := &cobra.Command{
		Use:   "configure",
		Short: "Set the number of targets and shots per target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current := c.svc.Board().Config
			if !cmd.Flags().Changed("targets") {
				targets = current.TargetCount
			}
			if !cmd.Flags().Changed("shots") {
				shots = current.ShotsPerTarget
			}
			cfg, err := c.svc.Configure(cmd.Context(), targets, shots)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "configured %s, %d shots, %s\n", cfg, cfg.TotalShots, typeLabel(cfg.Type))
			for _, problem := range c.svc.ValidateSetup() {
				fmt.Fprintf(c.out, "  ! %v\n", problem)
			}
			return nil
		},
	}
	configure.Flags().IntVarP(&targets, "targets", "t", 0, "number of targets")
	configure.Flags().IntVarP(&shots, "shots", "s", 0, "shots per target")

	start := &cobra.Command{
		Use:   "start",
		Short: "Start scoring the selected shooters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.svc.StartTournament(cmd.Context()); err != nil {
				return err
			}
			b := c.svc.Board()
			fmt.Fprintf(c.out, "started %s with %d shooters\n", b.Config, len(b.Participants))
			return nil
		},
	}

	var live bool
	score := &cobra.Command{
		Use:   "score SHOOTER TARGET SHOT VALUE",
		Short: "Record one shot; values are clamped to 0..10 unless --live is set",
		Long: `Record one shot. By default the value is committed: its leading number is
read and clamped to 0..10. With --live the value is written only when it is
already a valid score; an empty value clears the shot.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.resolveParticipant(args[0])
			if err != nil {
				return err
			}
			target, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("target %q is not a number", args[1])
			}
			shot, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("shot %q is not a number", args[2])
			}

			var u scoring.Update
			if live {
				u, err = c.svc.SetScore(cmd.Context(), id, target, shot, args[3])
			} else {
				u, err = c.svc.CapScore(cmd.Context(), id, target, shot, args[3])
			}
			if err != nil {
				return err
			}
			printUpdate(c.out, args[0], target, shot, u)
			return nil
		},
	}
	score.Flags().BoolVar(&live, "live", false, "write only valid values, like typing into the field")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear every shot of the running tournament",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.svc.ClearScores(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "all shots cleared")
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the score sheet",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printBoard(c.out, c.svc.Board())
		},
	}

	standings := &cobra.Command{
		Use:   "standings",
		Short: "Rank the shooters",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			b := c.svc.Board()
			if b.Standings == nil {
				return fmt.Errorf("standings in phase %s: %w", b.Phase, scoring.ErrInvalidPhase)
			}
			return printStandings(c.out, b.Standings)
		},
	}

	finish := &cobra.Command{
		Use:   "finish",
		Short: "Finish the tournament and save it to history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := c.svc.Finish(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "finished tournament %d\n", entry.Timestamp)
			return printStandings(c.out, entry.Results)
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Discard the active tournament and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.svc.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "session reset")
			return nil
		},
	}

	cmd.AddCommand(configure, start, score, clearCmd, show, standings, finish, reset)
	return cmd
}

func printUpdate(w io.Writer, who string, target, shot int, u scoring.Update) {
	mark := ""
	if u.Perfect {
		mark = " *"
	}
	if !u.Committed {
		mark = " (unchanged)"
	}
	fmt.Fprintf(w, "%s T%d S%d = %s%s | target %d | total %d, %d tens | %s\n",
		who, target, shot, u.Value, mark, u.TargetTotal, u.Aggregate.Total, u.Aggregate.PerfectShots, u.Status)
}

func printBoard(out io.Writer, b service.Board) error {
	fmt.Fprintf(out, "phase: %s\n", b.Phase)
	fmt.Fprintf(out, "shape: %s (%s)\n", b.Config, typeLabel(b.Config.Type))
	if b.Sheet == nil {
		names := make([]string, len(b.Participants))
		for i, p := range b.Participants {
			names[i] = p.Name
		}
		fmt.Fprintf(out, "selected: %s\n", strings.Join(names, ", "))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"NAME"}
	for t := 1; t <= b.Sheet.Targets(); t++ {
		header = append(header, "T"+strconv.Itoa(t))
	}
	header = append(header, "TOTAL", "TENS", "STATUS")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, p := range b.Participants {
		row := []string{p.Name}
		for t := 1; t <= b.Sheet.Targets(); t++ {
			shots := make([]string, b.Sheet.Shots())
			for s := 1; s <= b.Sheet.Shots(); s++ {
				v, _ := b.Sheet.Get(p.ID, t, s)
				shots[s-1] = v.String()
			}
			cell := strings.Join(shots, " ")
			if b.Sheet.IsPerfectTarget(p.ID, t) {
				cell += "*"
			}
			row = append(row, cell)
		}
		agg := b.Sheet.Aggregate(p.ID)
		row = append(row, strconv.Itoa(agg.Total), strconv.Itoa(agg.PerfectShots), b.Sheet.Status(p.ID).String())
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func printStandings(out io.Writer, results []model.RankedResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tTOTAL\tTENS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", r.Rank, r.Name, r.TotalScore, r.PerfectShotCount)
	}
	return w.Flush()
}

func typeLabel(t tournament.Type) string {
	if t == tournament.TypeNone {
		return "no category"
	}
	return string(t)
}
