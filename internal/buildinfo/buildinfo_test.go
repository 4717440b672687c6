package buildinfo

import "testing"

func TestShort(t *testing.T) {
	saved := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = saved[0], saved[1], saved[2] })

	tests := []struct {
		version, commit string
		want            string
	}{
		{"dev", "unknown", "dev"},
		{"dev", "abc123", "abc123"},
		{"v1.2.0", "abc123", "v1.2.0"},
		{"", "", "dev"},
	}
	for _, tc := range tests {
		Version, Commit = tc.version, tc.commit
		if got := Short(); got != tc.want {
			t.Fatalf("Short() with %q/%q = %q, want %q", tc.version, tc.commit, got, tc.want)
		}
	}

	Version, Commit, Date = "v1.2.0", "abc123", "2026-01-02"
	if got, want := Describe(), "kestrel v1.2.0 (commit abc123, built 2026-01-02)"; got != want {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}
