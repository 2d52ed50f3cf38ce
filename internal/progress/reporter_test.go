package progress

import (
	"bytes"
	"testing"
)

func TestCIReporterLines(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Description: "Seeding content", Out: &buf}
	r.Start(2)
	r.Update(1, "quran-2-153")
	r.Update(2, "quran-94-5")
	r.Finish()

	want := "Seeding content: 2 items\n[1/2] quran-2-153\n[2/2] quran-94-5\nSeeding content: done\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNewReporterInTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter("x").(*TerminalReporter); !ok {
		t.Error("expected TerminalReporter outside CI")
	}
}
