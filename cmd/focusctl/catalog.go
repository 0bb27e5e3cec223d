package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDepartmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "departments",
		Short: "Manage departments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List departments",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := newAPIClient()
			if err != nil {
				return err
			}
			departments, err := apiClient.ListDepartments(cmd.Context())
			if err != nil {
				return err
			}
			for _, department := range departments {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", department.ID, department.Name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := newAPIClient()
			if err != nil {
				return err
			}
			department, err := apiClient.CreateDepartment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", department.Name, department.ID)
			return nil
		},
	})

	return cmd
}

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := newAPIClient()
			if err != nil {
				return err
			}
			projects, err := apiClient.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			for _, project := range projects {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", project.ID, project.Code, project.Name)
			}
			return nil
		},
	})

	var departmentName string
	add := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Create a project in a department",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := newAPIClient()
			if err != nil {
				return err
			}
			department, err := findDepartment(cmd, apiClient, departmentName)
			if err != nil {
				return err
			}
			project, err := apiClient.CreateProject(cmd.Context(), department.ID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", project.Code, project.Name, project.ID)
			return nil
		},
	}
	add.Flags().StringVar(&departmentName, "department", "", "department name")
	add.MarkFlagRequired("department")
	cmd.AddCommand(add)

	return cmd
}
