package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusblock/internal/client/api"
	"focusblock/internal/client/controller"
	"focusblock/internal/model"
)

func newStartCmd() *cobra.Command {
	var departmentName, projectCode, title string
	var minutes int
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, apiClient, err := newTimerController(nil)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if err := ctrl.Init(cmd.Context()); err != nil {
				return err
			}
			if ctrl.OtherTabActive() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: another tab appears to own an active timer")
			}

			department, err := findDepartment(cmd, apiClient, departmentName)
			if err != nil {
				return err
			}
			project, err := findProject(cmd, apiClient, projectCode)
			if err != nil {
				return err
			}

			err = ctrl.Start(cmd.Context(), controller.StartParams{
				DepartmentID:    department.ID,
				DepartmentName:  department.Name,
				ProjectID:       project.ID,
				ProjectCode:     project.Code,
				ProjectName:     project.Name,
				DurationMinutes: minutes,
				PlannedTitle:    title,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "started %d min on %s / %s: %s\n",
				minutes, department.Name, project.Code, title)
			return nil
		},
	}
	cmd.Flags().StringVar(&departmentName, "department", "", "department name")
	cmd.Flags().StringVar(&projectCode, "project", "", "project code")
	cmd.Flags().StringVar(&title, "title", "", "what you plan to do")
	cmd.Flags().IntVar(&minutes, "minutes", 25, "session length in minutes (15, 25, 30, 45, 60, 90)")
	cmd.MarkFlagRequired("department")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, func(ctrl *controller.Controller) error {
				if err := ctrl.Pause(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "paused")
				return nil
			})
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the paused session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, func(ctrl *controller.Controller) error {
				if err := ctrl.Resume(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "resumed")
				return nil
			})
		},
	}
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, func(ctrl *controller.Controller) error {
				if err := ctrl.Cancel(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "canceled")
				return nil
			})
		},
	}
}

func newCompleteCmd() *cobra.Command {
	var notDone bool
	var actualTitle, notes string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Record what happened and close the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, func(ctrl *controller.Controller) error {
				if err := ctrl.Complete(cmd.Context(), !notDone, actualTitle, notes); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "completed")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&notDone, "not-done", false, "the planned work was not completed")
	cmd.Flags().StringVar(&actualTitle, "actual-title", "", "what actually happened (required with --not-done)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current timer state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(cmd, func(ctrl *controller.Controller) error {
				printStatus(cmd, ctrl)
				return nil
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := newAPIClient()
			if err != nil {
				return err
			}
			sessions, err := apiClient.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, session := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%dm\t%s\n",
					session.StartedAt.Local().Format(time.RFC3339),
					session.Status,
					session.DurationMinutes,
					session.PlannedTitle,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max sessions to list")
	return cmd
}

// withTimer builds a controller, runs the recovery pass, and hands the
// controller to fn.
func withTimer(cmd *cobra.Command, fn func(*controller.Controller) error) error {
	ctrl, _, err := newTimerController(nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Init(cmd.Context()); err != nil {
		return err
	}
	return fn(ctrl)
}

func printStatus(cmd *cobra.Command, ctrl *controller.Controller) {
	snap := ctrl.Snapshot()
	out := cmd.OutOrStdout()
	if snap == nil {
		fmt.Fprintln(out, "idle")
	} else {
		fmt.Fprintf(out, "%s  %s / %s  %s\n", snap.Status, snap.DepartmentName, snap.ProjectCode, snap.PlannedTitle)
		fmt.Fprintf(out, "remaining %s  elapsed %s\n", formatClock(ctrl.Remaining()), formatClock(ctrl.Elapsed()))
	}
	if ctrl.OtherTabActive() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: another tab appears to own an active timer")
	}
}

func findDepartment(cmd *cobra.Command, apiClient *api.Client, name string) (*model.Department, error) {
	departments, err := apiClient.ListDepartments(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range departments {
		if strings.EqualFold(departments[i].Name, name) {
			return &departments[i], nil
		}
	}
	return nil, fmt.Errorf("unknown department %q", name)
}

func findProject(cmd *cobra.Command, apiClient *api.Client, code string) (*model.Project, error) {
	projects, err := apiClient.ListProjects(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if strings.EqualFold(projects[i].Code, code) {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("unknown project %q", code)
}
