package textfix

import "testing"

func TestFixMojibake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii untouched", "I remember the day", "I remember the day"},
		{"single layer apostrophe", "donâ€™t", "don’t"},
		{"double layer apostrophe", "donÃ¢Â€Â™t", "don’t"},
		{"accented latin", "cafÃ©", "café"},
		{"legitimate accents survive", "café naïve", "café naïve"},
		{"legitimate dash survives", "then — later", "then — later"},
		{"mixed clean and broken", "naïve but donâ€™t", "naïve but don’t"},
		{"accent next to broken sequence", "résuméâ€™s", "résumé’s"},
		{"broken sequence before accent", "â€œéclair", "“éclair"},
		{"non latin text survives", "日本語", "日本語"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FixMojibake(tt.in); got != tt.want {
				t.Errorf("FixMojibake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"don’t", "dont"},
		{"don't", "don't"},
		{"café", "cafe"},
		{"“quoted”", "\"quoted\""},
		{"Zoë Brontë", "Zoe Bronte"},
	}

	for _, tt := range tests {
		if got := ToASCII(tt.in); got != tt.want {
			t.Errorf("ToASCII(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixer(t *testing.T) {
	tests := []struct {
		name   string
		remove []string
		in     string
		want   string
	}{
		{"corrupted apostrophe", []string{"Ä¶"}, "donÃ¢Â€Â™t", "dont"},
		{"accent next to corrupted apostrophe", []string{"Ä¶"}, "résuméâ€™s", "resumes"},
		{"double layer then accent", []string{"Ä¶"}, "cafÃ©â€™s", "cafes"},
		{"artifact removed", []string{"Ä¶"}, "and thenÄ¶ we left", "and then we left"},
		{"artifact kept without rule", nil, "okÄ¶", "okK"},
		{"clean ascii is stable", []string{"Ä¶"}, "We went to the beach.", "We went to the beach."},
		{"empty rules ignored", []string{""}, "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewFixer(tt.remove).Fix(tt.in); got != tt.want {
				t.Errorf("Fix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
