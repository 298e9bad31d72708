package aws

import "testing"

// TestObjectKey verifies prefix handling.
func TestObjectKey(t *testing.T) {
	cases := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "amv/3min_amv_x.mp4", "amv/3min_amv_x.mp4"},
		{"media", "amv/3min_amv_x.mp4", "media/amv/3min_amv_x.mp4"},
		{"media/prod", "reports/x/combined_report.json", "media/prod/reports/x/combined_report.json"},
	}
	for _, tc := range cases {
		c := &Client{prefix: tc.prefix}
		if got := c.ObjectKey(tc.key); got != tc.want {
			t.Fatalf("ObjectKey(%q) with prefix %q = %q, want %q", tc.key, tc.prefix, got, tc.want)
		}
	}
}
