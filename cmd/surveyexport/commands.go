package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"surveyadmin/internal/auth"
	"surveyadmin/internal/db"
	"surveyadmin/internal/report"
	"surveyadmin/internal/survey"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func openDB(ctx context.Context) (*sql.DB, error) {
	return db.OpenPostgresWithConfig(ctx, cfg.DBDSN, cfg.Postgres())
}

func newExportCmd(format string) *cobra.Command {
	var ids []int64
	var out string

	cmd := &cobra.Command{
		Use:     format,
		Short:   fmt.Sprintf("Export surveys as %s", format),
		Example: fmt.Sprintf("  surveyexport %s --ids 1,2\n  surveyexport %s --ids 3 --out -", format, format),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--ids is required")
			}
			ctx := cmd.Context()
			conn, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := report.NewService(survey.NewStore(conn), report.ServiceConfig{CSV: cfg.CSV()})
			att, err := svc.Export(ctx, report.ExportRequest{
				ID:        uuid.NewString(),
				SurveyIDs: ids,
				Format:    report.Format(format),
			})
			if err != nil {
				return err
			}
			return writeAttachment(cmd.OutOrStdout(), out, att)
		},
	}
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "comma separated survey ids")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, '-' for stdout (default: attachment name)")
	return cmd
}

// writeAttachment writes to stdout for "-", to out when given, else to the
// attachment's own filename in the working directory. A "/" kept in that
// filename becomes "_" so the file never lands in a subdirectory.
func writeAttachment(stdout io.Writer, out string, att *report.Attachment) error {
	if out == "-" {
		_, err := stdout.Write(att.Body)
		return err
	}
	if out == "" {
		out = strings.ReplaceAll(att.Filename, "/", "_")
	}
	if err := os.WriteFile(filepath.Clean(out), att.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", out, len(att.Body))
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List surveys with question and response counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			conn, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			items, err := survey.NewStore(conn).ListSurveys(ctx)
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), items)
		},
	}
}

func printSummaries(w io.Writer, items []survey.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUESTIONS\tRESPONSES\tPUBLISHED")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%t\n", it.ID, it.Name, it.QuestionCount, it.ResponseCount, it.IsPublished)
	}
	return tw.Flush()
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the survey and admin tables if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			conn, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.EnsureSchema(ctx, conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var username, password, fullName, role string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create or reset an admin/staff account for the export UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			conn, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			u, err := auth.NewService(conn, auth.ServiceConfig{}).UpsertStaffUser(ctx, username, password, fullName, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s (id=%d, role=%s) ready\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "admin or staff")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
