package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ytakahashi/todo-list/internal/models"
	"github.com/ytakahashi/todo-list/internal/services"
)

func printProjection(w io.Writer, p models.Projection) {
	if len(p.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
	}
	for _, t := range p.Tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", mark, t.ID, t.Title)
		if t.DueDate != "" {
			line += "  (due " + t.DueDate + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, p.Summary)
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, incomplete first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("filter")
			filter, err := models.ParseFilter(raw)
			if err != nil {
				return err
			}

			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				p, err := services.Project(s.Tasks(), filter)
				if err != nil {
					return err
				}
				printProjection(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}

	cmd.Flags().StringP("filter", "f", "all", "Filter (all, active, completed)")

	return cmd
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, _ := cmd.Flags().GetString("due")

			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				task, err := s.Add(cmd.Context(), args[0], due)
				if err != nil {
					return err
				}
				if task == nil {
					return fmt.Errorf("title must not be empty")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", task.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringP("due", "d", "", "Due date (YYYY-MM-DD)")

	return cmd
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Mark a task complete or incomplete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				task, err := s.ToggleComplete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if task == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "No task %s\n", args[0])
					return nil
				}
				state := "incomplete"
				if task.Completed {
					state = "complete"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", task.ID, state)
				return nil
			})
		},
	}
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change a task's title or due date",
		Long: `Change a task's title or due date.
An empty --title keeps the current title. Without --due the due date is kept;
--due "" clears it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			due, _ := cmd.Flags().GetString("due")

			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				current, ok := s.Get(args[0])
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "No task %s\n", args[0])
					return nil
				}
				if !cmd.Flags().Changed("due") {
					due = current.DueDate
				}

				task, err := s.Edit(cmd.Context(), args[0], title, due)
				if err != nil {
					return err
				}
				if task == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "No task %s\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", task.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringP("title", "t", "", "New title")
	cmd.Flags().StringP("due", "d", "", "New due date (YYYY-MM-DD), empty to clear")

	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				_, err := s.Delete(cmd.Context(), args[0])
				return err
			})
		},
	}
}

func clearCompletedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove all completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				n, err := s.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed task(s)\n", n)
				return nil
			})
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")

			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				data, err := s.Export()
				if err != nil {
					return err
				}
				if out == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %v", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", services.ExportFilename, `Output file ("-" for stdout)`)

	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Merge tasks from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withStore(cmd.Context(), func(s *services.TaskStore) error {
				n, err := s.ImportFrom(cmd.Context(), f)
				if err != nil {
					return fmt.Errorf("failed to import: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Import complete: %d task(s)\n", n)
				return nil
			})
		},
	}
}
