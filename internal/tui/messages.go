package tui

import "time"

// FrameMsg drives one frame of the application loop.
type FrameMsg time.Time

// WakeMsg is sent when events are waiting on the bus.
type WakeMsg struct{}

// LoginSubmitMsg is sent when the login form is submitted.
type LoginSubmitMsg struct {
	Username string
	Password string
	Register bool
	Remember bool
}

// OpenViewMsg asks to open the view of the selected stock.
type OpenViewMsg struct {
	Symbol string
}

// SearchChangedMsg carries the edited search pattern.
type SearchChangedMsg struct {
	Pattern string
}
