package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
server:
  addr: ":9090"
log_level: "debug"
pipelines:
  - name: "double"
    steps:
      - kind: "map"
        fn: "mul"
        args: [2]
`

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streamfusion.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	def, ok := cfg.FindPipeline("double")
	if !ok {
		t.Fatalf("expected pipeline %q to be found", "double")
	}
	if len(def.Steps) != 1 || def.Steps[0].Fn != "mul" {
		t.Fatalf("unexpected steps: %+v", def.Steps)
	}
}

func TestLoadUsesDefaultsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8085" {
		t.Fatalf("Server.Addr = %q, want default :8085", cfg.Server.Addr)
	}
}

func TestFindPipelineMissing(t *testing.T) {
	cfg := &Config{}
	if _, ok := cfg.FindPipeline("nope"); ok {
		t.Fatalf("expected nope to be absent")
	}
}

func TestParsePipelineYAML(t *testing.T) {
	doc := `
- name: "sample"
  steps:
    - kind: "filter"
      fn: "gt"
      args: [1]
`
	defs, err := ParsePipelineYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePipelineYAML: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "sample" {
		t.Fatalf("unexpected defs: %+v", defs)
	}
}
