package domain

// Settings are the behavioral flags toggled by the user interface.
type Settings struct {
	// No log lines are processed while paused. They are buffered and processed on unpause.
	Paused bool

	AutoJoin        bool
	AutoLeave       bool
	AutoAddOnList   bool
	AutoClearOnList bool

	// Presentation flags. AutoSort re-sorts the roster after a manual add.
	AutoSort bool
	AutoTile bool
}

func DefaultSettings() Settings {
	return Settings{
		Paused:          false,
		AutoJoin:        true,
		AutoLeave:       true,
		AutoAddOnList:   true,
		AutoClearOnList: true,
		AutoSort:        false,
		AutoTile:        false,
	}
}
