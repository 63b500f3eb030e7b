package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"surveyadmin/internal/report"
	"surveyadmin/internal/survey"
)

func TestWriteAttachmentStdout(t *testing.T) {
	var buf bytes.Buffer
	att := &report.Attachment{Filename: "A.csv", Body: []byte("user,Q")}
	if err := writeAttachment(&buf, "-", att); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "user,Q" {
		t.Fatalf("unexpected stdout %q", buf.String())
	}
}

func TestWriteAttachmentFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "export.csv")
	var buf bytes.Buffer
	att := &report.Attachment{Filename: "A.csv", Body: []byte("user,Q")}

	if err := writeAttachment(&buf, out, att); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "user,Q" {
		t.Fatalf("unexpected file body %q", string(got))
	}
	if !strings.Contains(buf.String(), "wrote "+out) {
		t.Fatalf("expected confirmation line, got %q", buf.String())
	}
}

func TestWriteAttachmentDefaultNameStaysInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var buf bytes.Buffer
	att := &report.Attachment{Filename: "Q/A.csv", Body: []byte("user,Q")}
	if err := writeAttachment(&buf, "", att); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "Q_A.csv"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "user,Q" {
		t.Fatalf("unexpected file body %q", string(got))
	}
}

func TestPrintSummaries(t *testing.T) {
	var buf bytes.Buffer
	err := printSummaries(&buf, []survey.Summary{{ID: 4, Name: "Kepuasan", QuestionCount: 3, ResponseCount: 10, IsPublished: true}})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "4") || !strings.Contains(lines[1], "Kepuasan") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
}

func TestExportCommandsRegistered(t *testing.T) {
	for _, name := range []string{"csv", "xlsx", "list", "migrate", "create-admin"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %s not registered: %v", name, err)
		}
	}
	csv, _, _ := rootCmd.Find([]string{"csv"})
	if csv.Flags().Lookup("ids") == nil || csv.Flags().Lookup("out") == nil {
		t.Fatalf("csv command missing flags")
	}
}
