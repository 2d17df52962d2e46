package version

import (
	"strings"
	"testing"
)

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("shortCommit = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("shortCommit = %q", got)
	}
}

func TestStringUsesLinkerValues(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "v1.2.3", "feedfacecafebeef"
	if got := String(); got != "v1.2.3 (feedfacecafe)" {
		t.Fatalf("String() = %q", got)
	}
	if info := Resolve(); !strings.HasPrefix(info.GoVersion, "go") && info.GoVersion != "" {
		t.Fatalf("GoVersion = %q", info.GoVersion)
	}
}
