package app

import (
	"testing"
)

func TestNewConfigFromCLI(t *testing.T) {
	c, err := NewConfigFromCLI([]string{
		"-db", "vna.sqlite",
		"-s", "3",
		"-p", "b1_p1",
		"-o", "out/waterfall",
		"-f", "JPEG",
		"-theme", "marine",
		"-tz", "UTC",
		"-max-level", "5",
	})
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if c.SessionID != 3 || c.Parameter != "b1_p1" {
		t.Errorf("Unexpected session or parameter: %d %q", c.SessionID, c.Parameter)
	}
	if c.OutputFile != "out/waterfall.jpeg" || c.Format != ImageJPEG {
		t.Errorf("Unexpected output %q (%s)", c.OutputFile, c.Format)
	}
	if c.Theme != MarineTheme || c.TimeZone.String() != "UTC" {
		t.Errorf("Unexpected theme or zone: %s %s", c.Theme, c.TimeZone)
	}
	if c.MinLevel != nil || c.MaxLevel == nil || *c.MaxLevel != 5 {
		t.Errorf("Expected only max level set, got %v %v", c.MinLevel, c.MaxLevel)
	}

	b := c.levelBounds(LevelBounds{Min: -50, Max: 0})
	if b == nil || b.Min != -50 || b.Max != 5 {
		t.Errorf("Expected bounds -50..5, got %+v", b)
	}
}

func TestNewConfigFromCLI_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no db", []string{"-o", "x"}},
		{"no output", []string{"-db", "vna.sqlite"}},
		{"format", []string{"-db", "vna.sqlite", "-o", "x", "-f", "gif"}},
		{"theme", []string{"-db", "vna.sqlite", "-o", "x", "-theme", "rainbow"}},
		{"levels", []string{"-db", "vna.sqlite", "-o", "x", "-min-level", "0", "-max-level", "-10"}},
		{"row height", []string{"-db", "vna.sqlite", "-o", "x", "-row-height", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewConfigFromCLI(tt.args); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
