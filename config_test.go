package nexus

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Config_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Limits.ReactionTicks != DefaultReactionLimit {
		t.Fatalf("want default limit %d, got %d", DefaultReactionLimit, cfg.Limits.ReactionTicks)
	}
	if !cfg.Output.Color {
		t.Fatal("want color on by default")
	}
}

func Test_Config_Parse(t *testing.T) {
	cfg, err := ParseConfig([]byte("[limits]\nreaction_ticks = 50\n\n[output]\ncolor = false\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Limits.ReactionTicks != 50 {
		t.Fatalf("want limit 50, got %d", cfg.Limits.ReactionTicks)
	}
	if cfg.Output.Color {
		t.Fatal("want color off")
	}
}

func Test_Config_Parse_Partial_Keeps_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("[output]\ncolor = false\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Limits.ReactionTicks != DefaultReactionLimit {
		t.Fatalf("unset section lost its default, got %d", cfg.Limits.ReactionTicks)
	}
}

func Test_Config_Parse_Rejects_Bad_Input(t *testing.T) {
	if _, err := ParseConfig([]byte("[limits]\nreaction_ticks = -1\n")); err == nil {
		t.Fatal("negative tick limit accepted")
	}
	if _, err := ParseConfig([]byte("not toml [at all")); err == nil {
		t.Fatal("malformed toml accepted")
	}
}

func Test_Config_Load_And_Find(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte("[limits]\nreaction_ticks = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// found from a nested directory
	if got := FindConfigFile(sub); got != cfgPath {
		t.Fatalf("want %s, got %s", cfgPath, got)
	}
	// and from a file path inside it
	script := filepath.Join(sub, "main.nexus")
	if err := os.WriteFile(script, []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(script); got != cfgPath {
		t.Fatalf("want %s from script path, got %s", cfgPath, got)
	}

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Limits.ReactionTicks != 7 {
		t.Fatalf("want limit 7, got %d", cfg.Limits.ReactionTicks)
	}
}

func Test_Config_Find_Missing(t *testing.T) {
	if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
		t.Fatalf("want empty result for missing path, got %s", got)
	}
}

func Test_Config_Apply(t *testing.T) {
	ip := newInterp(t)
	cfg := DefaultConfig()
	cfg.Limits.ReactionTicks = 3
	cfg.Apply(ip)
	if ip.ReactionLimit() != 3 {
		t.Fatalf("want limit 3, got %d", ip.ReactionLimit())
	}

	_, err := ip.EvalPersistentSource("@var n = 1\n~reaction grow on n when n > 0 { n + 1 @> n }")
	wantErrKind(t, err, ErrReactionDidNotConverge)
}
