package testutil

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestServer_ManagedQdrant", "TestServer-ManagedQdrant"},
		{"TestX/sub case ü", "TestX-subcase"},
		{strings.Repeat("a", 40), strings.Repeat("a", 30)},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueContainerName(t *testing.T) {
	a := UniqueContainerName(t, "qdrant")
	b := UniqueContainerName(t, "qdrant")
	if a == b {
		t.Errorf("names collide: %q", a)
	}
	if !strings.HasPrefix(a, ContainerPrefix+"qdrant-TestUniqueContainerName-") {
		t.Errorf("name = %q", a)
	}
}
