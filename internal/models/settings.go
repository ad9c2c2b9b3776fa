package models

// Theme is the persisted display preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ValidTheme reports whether t is a known theme
func ValidTheme(t Theme) bool {
	return t == ThemeLight || t == ThemeDark
}

// SyncSettings reports the state of remote synchronization
type SyncSettings struct {
	Enabled    bool `json:"enabled"`
	Configured bool `json:"configured"`
}
