// Package leaderboard defines the domain model for mindshare leaderboard
// snapshots: windows, summary metrics, ranked entries, and the pure
// extraction logic that turns raw upstream payloads into them.
package leaderboard

import "fmt"

// Window selects the time range a leaderboard is computed over.
type Window string

// Supported leaderboard windows.
const (
	Window7D  Window = "7d"
	Window30D Window = "30d"
	Window3M  Window = "3m"
	Window6M  Window = "6m"
	Window12M Window = "12m"
)

// Windows returns all supported windows in canonical order.
func Windows() []Window {
	return []Window{Window7D, Window30D, Window3M, Window6M, Window12M}
}

// ParseWindow validates a window string and returns the typed value.
// Unsupported values are rejected with ErrInvalidRequest.
func ParseWindow(s string) (Window, error) {
	w := Window(s)
	if !w.Valid() {
		return "", fmt.Errorf("%w: unsupported window %q", ErrInvalidRequest, s)
	}
	return w, nil
}

// Valid reports whether the window is one of the supported values.
func (w Window) Valid() bool {
	switch w {
	case Window7D, Window30D, Window3M, Window6M, Window12M:
		return true
	}
	return false
}

func (w Window) String() string {
	return string(w)
}
