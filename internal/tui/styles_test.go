package tui

import (
	"strings"
	"testing"
)

func TestRenderShimmerLogoContainsAllLetters(t *testing.T) {
	out := renderShimmerLogo(0)
	for _, ch := range "VEXSCAN" {
		if !strings.ContainsRune(out, ch) {
			t.Errorf("logo missing letter %c:\n%s", ch, out)
		}
	}
}

func TestRenderShimmerLogoStableAcrossFrames(t *testing.T) {
	// Color changes per frame, but the letters never do.
	for _, frame := range []int{0, 7, 100, 10000} {
		out := renderShimmerLogo(frame)
		stripped := ""
		inEscape := false
		for _, r := range out {
			switch {
			case r == '\x1b':
				inEscape = true
			case inEscape && r == 'm':
				inEscape = false
			case !inEscape && r != ' ':
				stripped += string(r)
			}
		}
		if stripped != "VEXSCAN" {
			t.Errorf("frame %d: letters = %q", frame, stripped)
		}
	}
}

func TestStatusStyleRendersVerdictText(t *testing.T) {
	for _, verdict := range []string{"safe", "suspicious", "malicious", "unknown-xyz"} {
		t.Run(verdict, func(t *testing.T) {
			rendered := StatusStyle(verdict).Render(verdict)
			if !strings.Contains(rendered, verdict) {
				t.Errorf("StatusStyle(%q).Render = %q, want to contain %q", verdict, rendered, verdict)
			}
		})
	}
}

func TestHelpEntryFormatsKeyAndLabel(t *testing.T) {
	out := helpEntry("q", "quit")
	if !strings.Contains(out, "q") || !strings.Contains(out, "quit") {
		t.Errorf("helpEntry = %q", out)
	}
}
