package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const debtsCSV = `id,name,balance,apr,minimum_payment
A,Card A,3000,22,90
B,Card B,2000,9,60
`

const planYAML = `debts:
  - id: A
    name: Card A
    balance: "3000"
    apr: "22"
    minimum_payment: "90"
  - id: B
    name: Card B
    balance: "2000"
    apr: "9"
    minimum_payment: "60"
strategies:
  - kind: avalanche
    extra_amount: "200"
  - kind: snowball
    extra_amount: "200"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	debts := writeFile(t, "debts.csv", debtsCSV)
	plan := writeFile(t, "plan.yaml", planYAML)
	bad := writeFile(t, "bad.csv", "name,balance,apr,minimum_payment\n,100,-1,5\n")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		stdout   []string
		stderr   []string
	}{
		{
			name:     "avalanche table",
			args:     []string{"-debts", debts, "-extra", "200"},
			wantCode: exitOK,
			stdout:   []string{"avalanche+200.00", "Debt-free in:   16 months", "Total interest: 538.76", "Card A"},
		},
		{
			name:     "minimum only",
			args:     []string{"-debts", debts, "-strategy", "min"},
			wantCode: exitOK,
			stdout:   []string{"Debt-free in:   52 months", "Total interest: 1988.92"},
		},
		{
			name:     "schedule as csv",
			args:     []string{"-debts", debts, "-extra", "200", "-format", "csv"},
			wantCode: exitOK,
			stdout:   []string{"month,debt_id,name,interest", "16,"},
		},
		{
			name:     "table with schedule",
			args:     []string{"-debts", debts, "-extra", "200", "-schedule"},
			wantCode: exitOK,
			stdout:   []string{"Month", "Payment"},
		},
		{
			name:     "compare every kind",
			args:     []string{"-debts", debts, "-extra", "200", "-compare"},
			wantCode: exitOK,
			stdout:   []string{"minimum-only", "fixed-extra+200.00", "avalanche+200.00", "snowball+200.00", "best", "baseline"},
		},
		{
			name:     "plan strategies compared",
			args:     []string{"-plan", plan, "-format", "csv"},
			wantCode: exitOK,
			stdout:   []string{"strategy,converged,months", "avalanche+200.00,true,16,538.76", "snowball+200.00,true,17,"},
		},
		{
			name:     "flags override plan strategies",
			args:     []string{"-plan", plan, "-strategy", "snowball", "-extra", "200"},
			wantCode: exitOK,
			stdout:   []string{"snowball+200.00", "17 months"},
		},
		{
			name:     "horizon stops early",
			args:     []string{"-debts", debts, "-horizon", "12"},
			wantCode: exitOK,
			stdout:   []string{"stopped after 12 months (horizon)"},
		},
		{
			name:     "validation errors",
			args:     []string{"-debts", bad},
			wantCode: exitInvalid,
			stderr:   []string{"row 1 (1): name", "row 1 (1): apr"},
		},
		{
			name:     "no input",
			args:     []string{"-extra", "200"},
			wantCode: exitUsage,
			stderr:   []string{"exactly one of -debts or -plan"},
		},
		{
			name:     "both inputs",
			args:     []string{"-debts", debts, "-plan", plan},
			wantCode: exitUsage,
		},
		{
			name:     "unknown strategy",
			args:     []string{"-debts", debts, "-strategy", "lottery"},
			wantCode: exitUsage,
			stderr:   []string{"unknown strategy kind"},
		},
		{
			name:     "bad format",
			args:     []string{"-debts", debts, "-format", "xml"},
			wantCode: exitUsage,
		},
		{
			name:     "horizon above maximum",
			args:     []string{"-debts", debts, "-horizon", "5000"},
			wantCode: exitFailure,
			stderr:   []string{"horizon exceeds"},
		},
		{
			name:     "missing file",
			args:     []string{"-debts", filepath.Join(t.TempDir(), "nope.csv")},
			wantCode: exitUsage,
			stderr:   []string{"open debts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code %d, want %d\nstdout:\n%s\nstderr:\n%s", code, tt.wantCode, stdout, stderr)
			}
			for _, want := range tt.stdout {
				if !strings.Contains(stdout, want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout)
				}
			}
			for _, want := range tt.stderr {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr missing %q:\n%s", want, stderr)
				}
			}
		})
	}
}

func TestRun_PlannedPaymentsFromSpreadsheetExport(t *testing.T) {
	debts := writeFile(t, "debts.csv", "Name,Balance,Annual Rate (%),Minimum Payment,Monthly Payment\n"+
		"Card A,\"$3,000\",22,90,200\nCard B,\"2,000\",9,60,60\n")

	code, stdout, stderr := runCLI(t, "-debts", debts, "-strategy", "planned")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"Debt-free in:   39 months", "Total interest: 850.76", "Monthly plan:   260.00 (minimums 150.00)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	code, stdout, _ = runCLI(t, "-debts", debts, "-strategy", "planned", "-compare", "-format", "csv")
	if code != exitOK || !strings.Contains(stdout, "planned,true,39,850.76,") || !strings.Contains(stdout, ",1138.16,13") {
		t.Fatalf("exit %d, comparison:\n%s", code, stdout)
	}
}

func TestRun_NegativeAmortizationWarning(t *testing.T) {
	debts := writeFile(t, "debts.csv", "name,balance,apr,minimum_payment\nCard,1000,24,10\n")

	if code, _, _ := runCLI(t, "-debts", debts, "-horizon", "12"); code != exitInvalid {
		t.Fatalf("expected rejection without the flag, got %d", code)
	}
	code, _, stderr := runCLI(t, "-debts", debts, "-horizon", "12", "-allow-negative-amortization")
	if code != exitOK || !strings.Contains(stderr, "warning: row 1") {
		t.Fatalf("expected a warning, got code %d stderr %q", code, stderr)
	}
}
