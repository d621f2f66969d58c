package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// setupFarm writes a local-only config into a temp dir and returns the
// persistent flags pointing at it.
func setupFarm(t *testing.T) []string {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("FARM_PASSWORD", "")
	dir := t.TempDir()
	cfg := "local:\n  path: " + filepath.Join(dir, "farm.db") + "\n  debounce_ms: 10\n"
	cfgPath := filepath.Join(dir, "farmhand.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return []string{"--config", cfgPath, "--env", filepath.Join(dir, "missing.env")}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "fh dev") {
		t.Errorf("expected output to contain 'fh dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	for _, want := range []string{"fh 1.0.0", "commit: abc123", "built: 2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := run(t, "", "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, sub := range []string{"serve", "status", "seed", "login", "logout", "advise", "report", "digest"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q", sub)
		}
	}
}

func TestStatusCmd_LocalDemo(t *testing.T) {
	flags := setupFarm(t)
	out, err := run(t, "", append([]string{"status"}, flags...)...)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"Storage:           local", "Fields:            3", "Active cycles:     2", "Harvest revenue:   500.000 ₫"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestStatusCmd_SeasonRecommendation(t *testing.T) {
	flags := setupFarm(t)
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2024, 7, 15, 6, 0, 0, 0, time.UTC) }
	defer func() { timeNow = orig }()

	out, err := run(t, "", append([]string{"status"}, flags...)...)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Season:            rainy season") {
		t.Errorf("status missing season:\n%s", out)
	}
	if !strings.Contains(out, "Water less") {
		t.Errorf("status missing rainy-season recommendation:\n%s", out)
	}
}

func TestLoginLogout(t *testing.T) {
	flags := setupFarm(t)

	if _, err := run(t, "wrong\n", append([]string{"login", "--email", "farmer@example.com"}, flags...)...); err == nil {
		t.Fatal("login with wrong password: want error")
	}

	out, err := run(t, "12345678\n", append([]string{"login", "--email", "farmer@example.com", "--remember"}, flags...)...)
	if err != nil {
		t.Fatalf("login failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Logged in as farmer@example.com") {
		t.Errorf("login output = %s", out)
	}

	// The remembered email is used when --email is omitted.
	if _, err := run(t, "12345678", append([]string{"login"}, flags...)...); err != nil {
		t.Errorf("login with remembered email failed: %v", err)
	}

	out, err = run(t, "", append([]string{"logout"}, flags...)...)
	if err != nil || !strings.Contains(out, "Logged out") {
		t.Errorf("logout = %q, %v", out, err)
	}
}

func TestLoginCmd_RequiresEmail(t *testing.T) {
	flags := setupFarm(t)
	_, err := run(t, "", append([]string{"login"}, flags...)...)
	if err == nil || !strings.Contains(err.Error(), "--email is required") {
		t.Errorf("err = %v, want --email is required", err)
	}
}

func TestReportCmd(t *testing.T) {
	flags := setupFarm(t)
	xlsx := filepath.Join(t.TempDir(), "report.xlsx")
	out, err := run(t, "", append([]string{"report", "--xlsx", xlsx}, flags...)...)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out, "Mustard Greens") || !strings.Contains(out, "500.000 ₫") {
		t.Errorf("report output:\n%s", out)
	}
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	f.Close()
}

func TestDigestCmd(t *testing.T) {
	flags := setupFarm(t)

	out, err := run(t, "", append([]string{"digest"}, flags...)...)
	if err != nil {
		t.Fatalf("digest failed: %v", err)
	}
	if !strings.Contains(out, "Nothing due today.") {
		t.Errorf("digest output = %s", out)
	}
}

func TestDigestCmd_SendNothingDue(t *testing.T) {
	flags := setupFarm(t)
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("DISCORD_BOT_TOKEN", "")
	orig := timeNow
	timeNow = func() time.Time { return time.Date(2023, 12, 20, 6, 0, 0, 0, time.UTC) }
	defer func() { timeNow = orig }()

	// Demo tasks are all completed, so nothing is sent and no channel is needed.
	out, err := run(t, "", append([]string{"digest", "--send"}, flags...)...)
	if err != nil {
		t.Fatalf("digest --send failed: %v", err)
	}
	if !strings.Contains(out, "Nothing due today.") {
		t.Errorf("digest output = %s", out)
	}
}

func TestAdviseCmd_OfflineAdvisor(t *testing.T) {
	flags := setupFarm(t)
	out, err := run(t, "", append([]string{"advise", "--cycle", "c2", "what", "next?"}, flags...)...)
	if err != nil {
		t.Fatalf("advise failed: %v", err)
	}
	if !strings.Contains(out, "Offline advisor") || !strings.Contains(out, "Cucumber") {
		t.Errorf("advise output = %s", out)
	}

	if _, err := run(t, "", append([]string{"advise", "--field", "nope", "hi"}, flags...)...); err == nil {
		t.Error("advise with unknown field: want error")
	}
}

func TestSeedCmd_RequiresRemote(t *testing.T) {
	flags := setupFarm(t)
	_, err := run(t, "", append([]string{"seed"}, flags...)...)
	if err == nil || !strings.Contains(err.Error(), "nothing to seed") {
		t.Errorf("err = %v, want nothing to seed", err)
	}
}

func TestReadPassword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"secret\n", "secret"},
		{"secret\r\n", "secret"},
		{"no-newline", "no-newline"},
	}
	for _, tt := range tests {
		got, err := readPassword(strings.NewReader(tt.in))
		if err != nil {
			t.Fatalf("readPassword(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("readPassword(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := readPassword(strings.NewReader("")); err == nil {
		t.Error("readPassword on empty input: want error")
	}
}
