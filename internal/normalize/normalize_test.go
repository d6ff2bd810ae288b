package normalize

import "testing"

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"sale", "sale"},
		{"  On   Sale  ", "On Sale"},
		{"new\tarrival\n", "new arrival"},
		{"null\x00byte", "nullbyte"},
		{"Cafe\u0301", "Caf\u00e9"}, // decomposed é composes
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanLabel(tt.input); got != tt.expected {
				t.Errorf("CleanLabel(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLabelKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Sale", "sale"},
		{" sale ", "sale"},
		{"SALE", "sale"},
		{"On  Sale", "on sale"},
		{"Straße", "strasse"},
		{"CAFÉ", "café"},
		{"Cafe\u0301", "caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LabelKey(tt.input); got != tt.expected {
				t.Errorf("LabelKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLabelKey_Equivalence(t *testing.T) {
	variants := []string{"Summer Sale", "summer sale", "  SUMMER   sale", "Summer\tSale"}
	want := LabelKey(variants[0])
	for _, v := range variants[1:] {
		if got := LabelKey(v); got != want {
			t.Errorf("LabelKey(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Coffee Beans", "coffee-beans"},
		{"Crème Brûlée", "creme-brulee"},
		{"Mugs/Cups", "mugs-cups"},
		{"  --Tea & Co.-- ", "tea-co"},
		{"日本茶", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
