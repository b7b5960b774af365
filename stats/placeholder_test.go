package stats //nolint:testpackage // testing internal placeholder helper

import "testing"

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver string
		n      int
		want   string
	}{
		{DriverPostgres, 1, "$1"},
		{DriverPostgres, 12, "$12"},
		{DriverMySQL, 1, "?"},
		{DriverMySQL, 3, "?"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := placeholder(tt.driver, tt.n); got != tt.want {
				t.Fatalf("placeholder(%q, %d) = %q, want %q", tt.driver, tt.n, got, tt.want)
			}
		})
	}
}
