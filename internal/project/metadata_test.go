package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMetadata(t *testing.T) {
	body := `title: launch trailer
expected_duration: 42.5
shots:
  - name: intro
    start: 0
    duration: 10
    dialogue: true
  - name: broll
    start: 10
    duration: 20
  - name: outro
    start: 30
    duration: 12.5
    dialogue: true
cuts: [10, 30]
`
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if meta.Title != "launch trailer" || meta.ExpectedDuration != 42.5 {
		t.Fatalf("meta = %+v", meta)
	}
	if len(meta.Shots) != 3 || len(meta.Cuts) != 2 {
		t.Fatalf("shots = %d cuts = %d, want 3 and 2", len(meta.Shots), len(meta.Cuts))
	}
	if meta.Shots[1].Dialogue {
		t.Fatal("broll shot should default to dialogue: false")
	}
	if got := meta.Shots[2].End(); got != 42.5 {
		t.Fatalf("outro End() = %v, want 42.5", got)
	}
}

func TestLoadMetadataErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not_yaml", body: "{{nope"},
		{name: "negative_duration", body: "expected_duration: -1\n"},
		{
			name: "overlapping_shots",
			body: "shots:\n  - {name: a, start: 0, duration: 10}\n  - {name: b, start: 5, duration: 10}\n",
		},
		{
			name: "descending_cuts",
			body: "cuts: [30, 10]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "project.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("want an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("want an error for a missing file")
	}
}

func TestShotAt(t *testing.T) {
	meta := &Metadata{Shots: []Shot{
		{Name: "intro", Start: 0, Duration: 10},
		{Name: "outro", Start: 10, Duration: 5},
	}}

	tests := []struct {
		t        float64
		wantIdx  int
		wantName string
	}{
		{0, 1, "intro"},
		{9.99, 1, "intro"},
		{10, 2, "outro"},
		{14.99, 2, "outro"},
		{15, 0, ""},
		{-1, 0, ""},
	}

	for _, tt := range tests {
		idx, shot := meta.ShotAt(tt.t)
		if idx != tt.wantIdx {
			t.Fatalf("ShotAt(%v) index = %d, want %d", tt.t, idx, tt.wantIdx)
		}
		if tt.wantIdx > 0 && shot.Name != tt.wantName {
			t.Fatalf("ShotAt(%v) shot = %q, want %q", tt.t, shot.Name, tt.wantName)
		}
	}

	var nilMeta *Metadata
	if idx, shot := nilMeta.ShotAt(5); idx != 0 || shot != nil {
		t.Fatal("nil metadata should cover no timestamps")
	}
}
