package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `
logging:
  level: debug
manager:
  operation_timeout: 5s
  max_checkpoints: 3
mounts:
  - prefix: /
    address: file:///srv/notebooks?create=true
  - prefix: /data/
    address: mem://
    readonly: true
    retries: 2
`

func TestLoadReader(t *testing.T) {
	cfg, err := LoadReader(strings.NewReader(testYAML), "yaml")
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level DEBUG, got %s", cfg.Logging.Level)
	}
	if cfg.Manager.OperationTimeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", cfg.Manager.OperationTimeout)
	}
	if cfg.Manager.CopyConcurrency != DefaultCopyConcurrency {
		t.Errorf("Expected default copy concurrency, got %d", cfg.Manager.CopyConcurrency)
	}
	if cfg.Manager.MaxCheckpoints != 3 {
		t.Errorf("Expected 3 checkpoints, got %d", cfg.Manager.MaxCheckpoints)
	}

	if len(cfg.Mounts) != 2 {
		t.Fatalf("Expected 2 mounts, got %d", len(cfg.Mounts))
	}
	if cfg.Mounts[0].Prefix != "" || cfg.Mounts[1].Prefix != "data" {
		t.Errorf("Expected normalized prefixes, got '%s' and '%s'", cfg.Mounts[0].Prefix, cfg.Mounts[1].Prefix)
	}
	if !cfg.Mounts[1].ReadOnly || cfg.Mounts[1].Retries != 2 {
		t.Errorf("Unexpected mount config: %+v", cfg.Mounts[1])
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contentfs.toml")
	content := `
[manager]
copy_concurrency = 4

[[mounts]]
prefix = ""
address = "mem://"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Manager.CopyConcurrency != 4 {
		t.Errorf("Expected copy concurrency 4, got %d", cfg.Manager.CopyConcurrency)
	}
	if cfg.Manager.OperationTimeout != DefaultOperationTimeout {
		t.Errorf("Expected default timeout, got %s", cfg.Manager.OperationTimeout)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("CONTENTFS_LOGGING_LEVEL", "warn")
	t.Setenv("CONTENTFS_MANAGER_MAX_CHECKPOINTS", "7")

	cfg, err := LoadReader(strings.NewReader(testYAML), "yaml")
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level WARN from environment, got %s", cfg.Logging.Level)
	}
	if cfg.Manager.MaxCheckpoints != 7 {
		t.Errorf("Expected 7 checkpoints from environment, got %d", cfg.Manager.MaxCheckpoints)
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]string{
		"no mounts": `
mounts: []
`,
		"duplicate prefix": `
mounts:
  - { prefix: data, address: "mem://" }
  - { prefix: /data, address: "mem://" }
`,
		"missing address": `
mounts:
  - { prefix: data }
`,
		"bad level": `
logging: { level: loud }
mounts:
  - { address: "mem://" }
`,
		"bad concurrency": `
manager: { copy_concurrency: 0 }
mounts:
  - { address: "mem://" }
`,
	}

	for name, content := range tests {
		t.Run(name, func(tst *testing.T) {
			if _, err := LoadReader(strings.NewReader(content), "yaml"); err == nil {
				tst.Fatalf("Expected validation to fail")
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("Expected validation error without mounts")
	}

	cfg, err := Load("",
		WithMounts(MountConfig{Prefix: "/scratch/", Address: "mem://"}),
		WithLogLevel("warn"),
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Mounts) != 1 || cfg.Mounts[0].Prefix != "scratch" {
		t.Errorf("Expected normalized command line mount, got %+v", cfg.Mounts)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level WARN, got %s", cfg.Logging.Level)
	}
	if cfg.Manager.CopyConcurrency != DefaultCopyConcurrency {
		t.Errorf("Expected default copy concurrency, got %d", cfg.Manager.CopyConcurrency)
	}
}
