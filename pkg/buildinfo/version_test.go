package buildinfo

import (
	"strings"
	"testing"
)

func TestGetKeepsLinkerValues(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	defer func() { Version, Commit, Date = oldV, oldC, oldD }()

	Version, Commit, Date = "v1.2.3", "abc123", "2024-05-01"
	got := Get()
	want := Info{Version: "v1.2.3", Commit: "abc123", Date: "2024-05-01"}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if !strings.Contains(Template(), "version v1.2.3") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.HasPrefix(String(), "version: v1.2.3\n") {
		t.Errorf("String() = %q", String())
	}
}
