package config

// Theme selects the terminal color palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto" // detect from the terminal
)

// Valid reports whether t is a known theme. Empty means auto.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto, "":
		return true
	}
	return false
}

// UIConfig holds user interface configuration.
type UIConfig struct {
	Theme Theme `yaml:"theme"`
}
