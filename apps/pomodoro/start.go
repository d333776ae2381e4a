package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studyplanner/core/pomodoro"
	"github.com/trezcool/studyplanner/services/apiclient"
)

type startOptions struct {
	work      time.Duration
	brk       time.Duration
	title     string
	courseID  string
	taskID    string
	intervals int
}

func (cli *commandLine) startCmd() *cobra.Command {
	var opts startOptions
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a focus timer. Completed work intervals are logged as study sessions; Ctrl+C discards the current one.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cli.client()
			if err != nil {
				return err
			}
			return cli.start(cmd.Context(), client, opts)
		},
	}
	flags := cmd.Flags()
	flags.DurationVarP(&opts.work, "work", "w", cli.conf.Pomodoro.WorkDuration, "work interval length")
	flags.DurationVarP(&opts.brk, "break", "b", cli.conf.Pomodoro.BreakDuration, "break length")
	flags.StringVarP(&opts.title, "title", "t", "Pomodoro", "event title")
	flags.StringVar(&opts.courseID, "course", "", "course ID to link the events to")
	flags.StringVar(&opts.taskID, "task", "", "task ID to link the events and study sessions to")
	flags.IntVarP(&opts.intervals, "intervals", "n", 0, "stop after this many completed work intervals (0: until interrupted)")
	return cmd
}

func (cli *commandLine) start(ctx context.Context, client *apiclient.Client, opts startOptions) error {
	if opts.intervals < 0 {
		return errors.New("--intervals cannot be negative")
	}

	hooks := apiclient.NewPomodoroHooks(client, opts.title)
	if opts.courseID != "" {
		hooks.CourseID = null.StringFrom(opts.courseID)
	}
	if opts.taskID != "" {
		hooks.TaskID = null.StringFrom(opts.taskID)
	}

	timer, err := pomodoro.NewTimer(pomodoro.Config{Work: opts.work, Break: opts.brk}, hooks)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := timer.Start(runCtx); err != nil {
		return errors.Wrap(err, "starting timer")
	}
	cli.green.Fprintf(cli.out, "%s #1 started: %s of work, %s breaks\n", opts.title, timer.Config().Work, timer.Config().Break)

	completed := 0
	runner := pomodoro.NewRunner(timer)
	runner.Tick = cli.tick
	runner.OnError = func(err error) {
		cli.yellow.Fprintf(cli.out, "warning: %v\n", err)
	}
	runner.OnTick = func(st pomodoro.Status) {
		if st.Completed > completed {
			completed = st.Completed
			cli.green.Fprintf(cli.out, "Work interval %d done, logged %s. Take a break!\n", completed, timer.Config().Work)
			if opts.intervals > 0 && completed >= opts.intervals {
				cancel()
				return
			}
		}
		if st.Phase == pomodoro.PhaseWork && !st.Running {
			if runCtx.Err() != nil {
				return
			}
			// break is over
			if err := timer.Start(runCtx); err != nil {
				cli.yellow.Fprintf(cli.out, "warning: %v\n", err)
			}
			cli.green.Fprintf(cli.out, "%s #%d started\n", opts.title, st.Completed+1)
		}
		cli.faint.Fprintf(cli.out, "%s %s\n", st.Phase, formatRemaining(st.Remaining))
	}

	_ = runner.Run(runCtx) // returns once runCtx is done

	if st := timer.Status(); st.Phase == pomodoro.PhaseWork && st.Active {
		timer.Reset()
		cli.yellow.Fprintln(cli.out, "Interrupted: the current work interval was not logged")
	}
	cli.green.Fprintf(cli.out, "%d work interval(s) logged\n", completed)
	return nil
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
