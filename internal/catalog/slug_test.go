package catalog

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Half-Life 2: Episode Two", "halflife_2_episode_two"},
		{"! ! !", "__"},
		{"123", "123"},
		{"1 2-3", "1_23"},
		{"  Привет World!", "привет_world"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
