package demo

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/everstacklabs/orcatalog/internal/catalog"
)

func TestEntriesNormalizeCleanly(t *testing.T) {
	models := catalog.Normalize(Entries())
	if len(models) != 5 {
		t.Fatalf("got %d models, want 5", len(models))
	}
	for _, m := range models {
		if m.IsFallback() {
			t.Errorf("%s fell back to raw", m.ID)
		}
		if m.CreatedFormatted == catalog.Unknown {
			t.Errorf("%s has no creation date", m.ID)
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	res, err := Run(dir, &out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	s := res.Stats
	if s.TotalModels != 5 || s.UniqueTags != 8 || s.AverageContextLength != 273792 || s.MaxContextLength != 1000000 {
		t.Errorf("stats = %+v", s)
	}

	for _, ext := range []string{"md", "json", "csv", "yaml"} {
		path := filepath.Join(dir, FilePrefix+"."+ext)
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing %s: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", path)
		}
	}
	if len(res.Outputs) != 4 {
		t.Errorf("outputs = %+v", res.Outputs)
	}

	want := map[string]string{
		"Free models":               "Llama 3 70B Instruct",
		"Models matching 'gpt'":     "GPT-4 Turbo",
		"Models with 100K+ context": "Claude 3 Opus,Gemini Pro 1.5,GPT-4 Turbo",
	}
	for _, ex := range res.Examples {
		var names []string
		for _, m := range ex.Models {
			names = append(names, m.Name)
		}
		if got := strings.Join(names, ","); got != want[ex.Label] {
			t.Errorf("%s = %q, want %q", ex.Label, got, want[ex.Label])
		}
	}

	for _, line := range []string{
		"Average context: 273,792 tokens",
		"Max context:     1,000,000 tokens",
		"    - Gemini Pro 1.5 (1,000,000 tokens)",
	} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("output missing %q\n%s", line, out.String())
		}
	}
}

func TestRunBadDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Run(filepath.Join(file, "sub"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error when the output directory cannot be created")
	}
}
