package rediskey

import "fmt"

// Cache key prefixes (global convention across services)
const (
	LeaderboardPrefix = "leaderboard"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildMonthlyLeaderboardKey returns "leaderboard:monthly:{yyyy-mm}:{limit}"
func BuildMonthlyLeaderboardKey(year, month, limit int) string {
	return NamespaceKey(LeaderboardPrefix, fmt.Sprintf("monthly:%04d-%02d:%d", year, month, limit))
}
