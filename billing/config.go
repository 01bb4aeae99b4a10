package billing

// Theme selects the appearance of vendor purchase sheets.
type Theme uint8

const (
	ThemeLight Theme = iota
	ThemeDark
)

func (t Theme) String() string {
	if t == ThemeDark {
		return "dark"
	}
	return "light"
}

// Config is the configuration consumed at Initialize. It is immutable once
// the client is initialized; re-initialization replaces it wholesale.
type Config struct {
	// ConsoleApplicationID identifies the application in the vendor console.
	ConsoleApplicationID string

	// DeeplinkScheme is the scheme the vendor uses to return control to the
	// application after an external payment flow.
	DeeplinkScheme string

	DebugLogs      bool
	Theme          Theme
	LoggingEnabled bool
}

func (c Config) Validate() error {
	if c.ConsoleApplicationID == "" {
		return NewError(ErrorGeneral, "console application id is required")
	}
	return nil
}
