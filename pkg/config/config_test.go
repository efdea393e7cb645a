package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	var s sample
	if err := Load(write(t, "name: ${SAMPLE_NAME}\nlimit: 3\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "from-env" || s.Limit != 3 {
		t.Fatalf("loaded = %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	var s sample
	err := Load(write(t, "limit: -1\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	s := sample{Name: "default"}
	loaded, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.yaml"), &s)
	if err != nil || loaded || s.Name != "default" {
		t.Fatalf("missing file: loaded=%v err=%v s=%+v", loaded, err, s)
	}

	loaded, err = LoadOrDefault(write(t, "name: file\n"), &s)
	if err != nil || !loaded || s.Name != "file" {
		t.Fatalf("present file: loaded=%v err=%v s=%+v", loaded, err, s)
	}

	bad := sample{Limit: -5}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "none.yaml"), &bad); err == nil {
		t.Fatal("invalid defaults should fail validation")
	}
}
