package bot

import "testing"

func TestSearchResultsTitle(t *testing.T) {
	tests := []struct {
		total, shown int
		want         string
	}{
		{3, 3, "Найдено обложек: 3"},
		{25, 10, "Найдено обложек: 25, показаны первые 10"},
		{10, 10, "Найдено обложек: 10"},
	}
	for _, tt := range tests {
		if got := searchResultsTitle(tt.total, tt.shown); got != tt.want {
			t.Errorf("searchResultsTitle(%d, %d) = %q, want %q",
				tt.total, tt.shown, got, tt.want)
		}
	}
}
