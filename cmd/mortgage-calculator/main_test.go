package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/internal/mortgage"
	"github.com/iwvelando/mortgage-calculator/internal/store"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"github.com/iwvelando/mortgage-calculator/pkg/testutil"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", "missing.yaml", "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   config.LoggingConfig
		override string
		wantErr  bool
	}{
		{name: "defaults", config: config.LoggingConfig{}},
		{name: "console debug", config: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "override wins", config: config.LoggingConfig{Level: "bogus"}, override: "warn"},
		{name: "invalid level", config: config.LoggingConfig{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if (err != nil) != tt.wantErr {
				t.Fatalf("initializeLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if logger != nil {
				_ = logger.Sync()
			}
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	if err != nil {
		t.Fatalf("initializeLogger() error = %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q", data)
	}
}

func TestReadRequest(t *testing.T) {
	yamlPath := writeFile(t, "request.yaml", "purchase_price: 400000\nloan_type: conventional\n")
	values, err := readRequest(nil, yamlPath)
	if err != nil {
		t.Fatalf("readRequest() error = %v", err)
	}
	if values["loan_type"] != "conventional" || values["purchase_price"] != 400000 {
		t.Errorf("values = %+v", values)
	}

	values, err = readRequest(strings.NewReader(`{"loan_type":"fha"}`), "-")
	if err != nil || values["loan_type"] != "fha" {
		t.Fatalf("readRequest(stdin) = %+v, %v", values, err)
	}

	if _, err := readRequest(nil, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := readRequest(strings.NewReader("  \n"), "-"); err == nil {
		t.Error("expected an error for an empty request")
	}
	if _, err := readRequest(strings.NewReader("- a\n- b\n"), "-"); err == nil {
		t.Error("expected an error for a list document")
	}
}

func TestCalculateCommand(t *testing.T) {
	request := writeFile(t, "purchase.yaml", `
purchase_price: 400000
down_payment_percentage: 20
annual_rate: 6.5
loan_term: 30
loan_type: conventional
`)

	out, err := execute(t, "", "calculate", "--request", request, "--output-format", "json")
	if err != nil {
		t.Fatalf("calculate error = %v", err)
	}
	var res mortgage.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.MonthlyBreakdown.PrincipalInterest != 2022.62 {
		t.Errorf("P&I = %v, want 2022.62", res.MonthlyBreakdown.PrincipalInterest)
	}

	out, err = execute(t, "", "calculate", "--request", request)
	if err != nil {
		t.Fatalf("calculate error = %v", err)
	}
	if !strings.Contains(out, "$2,022.62") {
		t.Errorf("pretty output missing payment:\n%s", out)
	}
}

func TestCalculateCommandValidationError(t *testing.T) {
	_, err := execute(t, `{"loan_type":"conventional"}`, "calculate", "--request", "-")
	if !errors.Is(err, mortgage.ErrValidation) {
		t.Fatalf("error = %v, want a validation error", err)
	}
}

func TestRefinanceCommand(t *testing.T) {
	stdin, err := json.Marshal(testutil.RefinanceRequest())
	if err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, string(stdin), "refinance", "--request", "-", "--output-format", "json")
	if err != nil {
		t.Fatalf("refinance error = %v", err)
	}
	var res mortgage.RefinanceResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if res.Comparison.BreakEven != "26 months" {
		t.Errorf("break-even = %q, want 26 months", res.Comparison.BreakEven)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := execute(t, "{}", "calculate", "--request", "-", "--output-format", "csv")
	if err == nil || !strings.Contains(err.Error(), "expected output format") {
		t.Fatalf("error = %v, want an output format error", err)
	}
}

func TestTablesValidateCommand(t *testing.T) {
	doc, err := json.Marshal(ratetables.Default())
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, "tables.json", string(doc))

	out, err := execute(t, "", "tables", "validate", "--tables", path)
	if err != nil {
		t.Fatalf("tables validate error = %v", err)
	}
	if !strings.Contains(out, "builtin-2026.10 are valid") || !strings.Contains(out, "fha") {
		t.Errorf("output = %q", out)
	}

	bad := writeFile(t, "bad.yaml", "version: broken\n")
	if _, err := execute(t, "", "tables", "validate", "--tables", bad); err == nil {
		t.Error("expected an error for invalid tables")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q", out)
	}
}

func TestPublishTables(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "tables.db"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	a := &app{conf: &config.Configuration{}, logger: zap.NewNop()}

	// First start records the built-in tables.
	first := ratetables.NewStore(zap.NewNop())
	if err := a.publishTables(ctx, first, db); err != nil {
		t.Fatalf("publishTables() error = %v", err)
	}
	history, err := db.History(ctx, 0)
	if err != nil || len(history) != 1 || history[0].Source != "builtin" {
		t.Fatalf("history = %+v, %v", history, err)
	}

	// A restart restores from storage without recording again.
	second := ratetables.NewStore(zap.NewNop())
	if err := a.publishTables(ctx, second, db); err != nil {
		t.Fatalf("publishTables() error = %v", err)
	}
	snap, err := second.Current()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(snap.Source, "storage:") || snap.Version != "builtin-2026.10" {
		t.Errorf("restored snapshot = %+v", snap)
	}
	if history, _ := db.History(ctx, 0); len(history) != 1 {
		t.Errorf("history grew to %d entries on restore", len(history))
	}
}
