package sequence

import "testing"

func TestParseName(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantBase  string
		wantFrame int
		wantOK    bool
	}{
		{"zero padded underscore", "shot_0007.png", "shot", 7, true},
		{"zero padded dash", "render-0120.exr", "render", 120, true},
		{"no separator long run", "frame0042.jpg", "frame", 42, true},
		{"single digit underscore", "shot_1.png", "shot", 1, true},
		{"single digit dash", "shot-9.png", "shot", 9, true},
		{"single digit no separator", "v2.png", "v2", 0, false},
		{"no digits", "holiday.jpg", "holiday", 0, false},
		{"digits not trailing", "12monkeys_poster.png", "12monkeys_poster", 0, false},
		{"extension case kept out", "Shot_0010.PNG", "Shot", 10, true},
		{"no extension", "clip_003", "clip", 3, true},
		{"dots in stem", "my.clip_05.png", "my.clip", 5, true},
		{"double separator keeps one", "a__12.png", "a_", 12, true},
		{"overflowing digits", "x_99999999999999999999999.png", "x_99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, frame, ok := ParseName(tt.in)
			if base != tt.wantBase || frame != tt.wantFrame || ok != tt.wantOK {
				t.Errorf("ParseName(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tt.in, base, frame, ok, tt.wantBase, tt.wantFrame, tt.wantOK)
			}
		})
	}
}

func TestStripExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a.png", "a"},
		{"a.b.webp", "a.b"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := StripExtension(tt.in); got != tt.want {
			t.Errorf("StripExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
