package cmd

import (
	"testing"
)

func testFlags() *CommandFlagSet {
	return &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"long":    {Name: "long", Short: "l", Type: "bool"},
			"force":   {Name: "force", Short: "f", Type: "bool"},
			"type":    {Name: "type", Short: "t", Type: "string", Default: "file"},
			"retries": {Name: "retries", Type: "int"},
		},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		args  []string
		flags map[string]any
	}{
		{"positional", []string{"a", "b"}, []string{"a", "b"}, map[string]any{"type": "file"}},
		{"combined-short", []string{"-lf", "dir"}, []string{"dir"}, map[string]any{"long": true, "force": true, "type": "file"}},
		{"long-equals", []string{"--type=notebook", "dir"}, []string{"dir"}, map[string]any{"type": "notebook"}},
		{"long-separate", []string{"--type", "directory"}, nil, map[string]any{"type": "directory"}},
		{"short-attached", []string{"-tnotebook"}, nil, map[string]any{"type": "notebook"}},
		{"int", []string{"--retries", "3"}, nil, map[string]any{"retries": int64(3), "type": "file"}},
		{"bool-explicit", []string{"--long=false"}, nil, map[string]any{"long": false, "type": "file"}},
		{"terminator", []string{"--", "-l"}, []string{"-l"}, map[string]any{"type": "file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(tst *testing.T) {
			args, err := NewParser(testFlags()).Parse(tt.raw)
			if err != nil {
				tst.Fatalf("Parse failed: %v", err)
			}

			if len(args.Args) != len(tt.args) {
				tst.Fatalf("Expected args %v, got %v", tt.args, args.Args)
			}
			for i := range tt.args {
				if args.Args[i] != tt.args[i] {
					tst.Errorf("Expected arg %d to be '%s', got '%s'", i, tt.args[i], args.Args[i])
				}
			}

			for key, expected := range tt.flags {
				if args.Flags[key] != expected {
					tst.Errorf("Expected flag %s = %v, got %v", key, expected, args.Flags[key])
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string][]string{
		"unknown-long":  {"--nope"},
		"unknown-short": {"-x"},
		"missing-value": {"--type"},
		"bad-int":       {"--retries", "many"},
		"bad-bool":      {"--long=maybe"},
	}

	for name, raw := range tests {
		t.Run(name, func(tst *testing.T) {
			if _, err := NewParser(testFlags()).Parse(raw); err == nil {
				tst.Errorf("Expected error for %v", raw)
			}
		})
	}
}

func TestParseRequired(t *testing.T) {
	flags := &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"id": {Name: "id", Short: "i", Type: "string", Required: true},
		},
	}

	if _, err := NewParser(flags).Parse(nil); err == nil {
		t.Errorf("Expected error for missing required flag")
	}
	if _, err := NewParser(flags).Parse([]string{"-i", "x"}); err != nil {
		t.Errorf("Parse failed: %v", err)
	}
}

func TestRequire(t *testing.T) {
	args := &CommandArgs{Args: []string{"a", "b"}}

	if err := args.Require(1, 2); err != nil {
		t.Errorf("Require failed: %v", err)
	}
	if err := args.Require(3, -1); err == nil {
		t.Errorf("Expected error for too few arguments")
	}
	if err := args.Require(0, 1); err == nil {
		t.Errorf("Expected error for too many arguments")
	}
	if got := args.Arg(5, "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got '%s'", got)
	}
}
