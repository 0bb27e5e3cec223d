package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focusblock/internal/client/snapshot"
	"focusblock/internal/timekeep"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the countdown until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var lastStatus string
			ctrl, _, err := newTimerController(func(snap *snapshot.Snapshot) {
				if snap == nil {
					fmt.Fprint(out, "\r\033[Kidle")
					lastStatus = snapshot.StatusIdle
					return
				}
				if snap.Status == snapshot.StatusFinished && lastStatus != snapshot.StatusFinished {
					// Keep ringing until the outcome is recorded.
					fmt.Fprint(out, "\a")
				}
				lastStatus = snap.Status
				remaining := timekeep.Remaining(snap.Vector(), time.Now())
				fmt.Fprintf(out, "\r\033[K%s %s  %s / %s  %s",
					snap.Status, formatClock(remaining), snap.DepartmentName, snap.ProjectCode, snap.PlannedTitle)
			})
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if err := ctrl.Init(ctx); err != nil {
				return err
			}
			printStatus(cmd, ctrl)

			err = ctrl.Run(ctx)
			fmt.Fprintln(out)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
