package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/dropzone/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"resolve"}, "image/*"},
		{[]string{"resolve", "image/png"}, "image/png"},
		{[]string{"resolve", "bogus"}, "image/*"},
		{[]string{"resolve", `{"image/jpeg":[".jpg",".jpeg"]}`}, "image/jpeg"},
		{[]string{"resolve", `{"image/*":[],"application/pdf":[".pdf"]}`}, "images-and-pdf"},
	}
	for _, tt := range tests {
		out, err := execute(t, tt.args...)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if got := strings.TrimSpace(out); got != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestResolveCommandVerbose(t *testing.T) {
	out, err := execute(t, "resolve", "-v", "application/pdf")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Key:    application/pdf", "Label:  PDF only", "Accept: application/pdf,.pdf"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveCommandInvalidJSON(t *testing.T) {
	_, err := execute(t, "resolve", `{"image/png":`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !stderrors.Is(err, errors.New(errors.CodeCLIInvalidAccept)) {
		t.Errorf("err = %v, want %s", err, errors.CodeCLIInvalidAccept)
	}
}

func TestPresetsCommand(t *testing.T) {
	out, err := execute(t, "presets")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want header plus 7 presets:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "KEY") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(out, "images-and-pdf") || !strings.Contains(out, "application/pdf,.pdf,image/*") {
		t.Errorf("missing combined preset:\n%s", out)
	}
}

func TestPresetsCommandJSON(t *testing.T) {
	out, err := execute(t, "presets", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"key": "image/webp"`) {
		t.Errorf("json output missing webp preset:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}

func TestLoadServeConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dropzone.yaml")
	yaml := "server:\n  port: 9000\nupload:\n  accept: application/pdf\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadServeConfig(serveOptions{configPath: path, host: "0.0.0.0"})
	if err != nil {
		t.Fatalf("loadServeConfig: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}

	cfg, err = loadServeConfig(serveOptions{configPath: path, port: 9100})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
}

func TestLoadServeConfigRejectsBadFlags(t *testing.T) {
	_, err := loadServeConfig(serveOptions{dir: t.TempDir(), port: 70000})
	if !stderrors.Is(err, errors.New(errors.CodeCLIArgs)) {
		t.Errorf("err = %v, want %s", err, errors.CodeCLIArgs)
	}

	_, err = loadServeConfig(serveOptions{dir: t.TempDir(), storage: "ftp"})
	if !stderrors.Is(err, errors.New(errors.CodeConfigInvalid)) {
		t.Errorf("err = %v, want %s", err, errors.CodeConfigInvalid)
	}
}
