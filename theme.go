package ckassist

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the output
// automatically matches any color scheme. A negative index disables the color.
type Theme struct {
	Prompt   int // Input prompt label
	ToolCall int // Tool call notices
	Error    int // Error messages
	Success  int // Success indicators
	Muted    int // Banners, separators, code gutters
	Accent   int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Prompt:   4,
		ToolCall: 3,
		Error:    1,
		Success:  2,
		Muted:    8,
		Accent:   5,
	}
}

// PlainTheme returns a theme with every color disabled.
func PlainTheme() Theme {
	return Theme{Prompt: -1, ToolCall: -1, Error: -1, Success: -1, Muted: -1, Accent: -1}
}
