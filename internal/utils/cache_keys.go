package utils

import "strings"

const dashboardStatsPrefix = "dashboard:stats:v1:"

func DashboardStatsKey(userID string) string {
	return dashboardStatsPrefix + strings.TrimSpace(userID)
}
