// Package config centralizes the host's terminal and connection limits.
// Game tuning lives in internal/config.
package config

import "time"

// Max render resolution in terminal cells. Larger terminals get a centred
// render area of this size.
const (
	MaxTermWidth  = 160
	MaxTermHeight = 50
)

// Player
const (
	MaxUsernameLength = 16 // Maximum display length for player usernames
)

// Leaderboard
const (
	LeaderboardSize = 5 // Entries shown on the lose screen
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
	ShutdownTimeout        = 15 * time.Second
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)
