// Command researchmesh is a small operational CLI over a session storage
// directory: inspect, pause, resume and clean up research sessions without
// going through the serving process.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/session"
	"github.com/hupe1980/researchmesh/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "researchmesh",
		Short:         "Inspect and manage research sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "./research_sessions", "session storage directory")

	newManager := func() (*session.Manager, error) {
		store, err := storage.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return session.NewManager(store, store)
	}

	root.AddCommand(
		newListCmd(newManager),
		newShowCmd(newManager),
		newPauseCmd(newManager),
		newResumeCmd(newManager),
		newCompleteCmd(newManager),
		newFailCmd(newManager),
		newDeleteCmd(newManager),
		newStatsCmd(newManager),
	)
	return root
}

type managerFactory func() (*session.Manager, error)

func newListCmd(newManager managerFactory) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			filter := core.Status(status)
			if status != "" && !filter.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSTAGE\tPAPERS\tUPDATED")
			for _, s := range m.List(filter) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
					s.ID, s.Status, s.Stage, s.PapersAnalyzed, s.PapersFound,
					s.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (running|paused|completed|failed)")
	return cmd
}

func newShowCmd(newManager managerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the full session record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			s, err := m.Get(args[0])
			if err != nil {
				return describeErr(err, args[0])
			}
			data, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newPauseCmd(newManager managerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <session-id>",
		Short: "Pause a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Pause(args[0]); err != nil {
				return describeErr(err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s paused\n", args[0])
			return nil
		},
	}
}

func newResumeCmd(newManager managerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a paused session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			s, err := m.Resume(args[0])
			if err != nil {
				return describeErr(err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s resumed at stage %q\n", s.ID, s.Stage)
			return nil
		},
	}
}

func newCompleteCmd(newManager managerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Mark a session as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Complete(args[0]); err != nil {
				return describeErr(err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s completed\n", args[0])
			return nil
		},
	}
}

func newFailCmd(newManager managerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "fail <session-id> <reason>",
		Short: "Mark a session as failed with a reason",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Fail(args[0], args[1]); err != nil {
				return describeErr(err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s failed\n", args[0])
			return nil
		},
	}
}

func newDeleteCmd(newManager managerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Delete(args[0]); err != nil {
				return describeErr(err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s deleted\n", args[0])
			return nil
		},
	}
}

func newStatsCmd(newManager managerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate session statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(m.Statistics(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// describeErr turns domain errors into operator friendly messages.
func describeErr(err error, id string) error {
	var ite *core.InvalidTransitionError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("no session %q in this storage directory", id)
	case errors.As(err, &ite):
		return fmt.Errorf("cannot %s session %q: it is %s", ite.Event, id, ite.Current)
	default:
		return err
	}
}
