package ui

import (
	"testing"

	"github.com/five82/spoolwatch/internal/prefs"
	"github.com/five82/spoolwatch/internal/push"
	"github.com/five82/spoolwatch/internal/state"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetThemeFallsBackToPrefsDefault(t *testing.T) {
	if got := GetTheme("Unknown").Name; got != prefs.DefaultTheme {
		t.Fatalf("GetTheme(Unknown).Name = %q, want %q", got, prefs.DefaultTheme)
	}
}

func TestThemesCoverEveryStatusAndClass(t *testing.T) {
	statuses := []string{state.StatusOffline.String(), state.StatusOnline.String(), state.StatusPrinting.String()}
	classes := []string{push.ClassInfo, push.ClassNew, push.ClassStart, push.ClassEnd, push.ClassAbort, push.ClassStop}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, s := range statuses {
			if th.StatusColors[s] == "" {
				t.Fatalf("%s: no color for status %q", name, s)
			}
		}
		for _, c := range classes {
			if th.LogColors[c] == "" {
				t.Fatalf("%s: no color for log class %q", name, c)
			}
		}
	}
}
