package configfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Items []struct {
		ID string `json:"id" yaml:"id"`
	} `json:"items" yaml:"items"`
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.yaml": "items:\n  - id: y\n",
		"a.yml":  "items:\n  - id: y\n",
		"a.json": `{"items":[{"id":"y"}]}`,
		"a":      `{"items":[{"id":"y"}]}`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := Load[sample](path, "items")
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if len(got.Items) != 1 || got.Items[0].ID != "y" {
			t.Fatalf("Load(%s) = %+v", name, got)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load[sample](" ", "items"); err == nil || !strings.Contains(err.Error(), "items file path is empty") {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := Load[sample](filepath.Join(t.TempDir(), "missing.yaml"), "items"); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := Decode[sample]([]byte("items: ["), ".yaml", "items"); err == nil || !strings.Contains(err.Error(), "decode yaml items") {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := Decode[sample]([]byte("{}"), ".toml", "items"); err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Fatalf("unexpected error %v", err)
	}
}
