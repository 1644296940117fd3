package stats

import (
	"math"
	"sort"

	"github.com/iliyamo/pool-reservation/internal/model"
)

// LeaderboardSize is how many swimmers the leaderboard shows.
const LeaderboardSize = 10

// LeaderboardEntry is one ranked swimmer.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	TotalLaps    int    `json:"total_laps"`
	TotalMeters  int    `json:"total_meters"`
	TotalMinutes int    `json:"total_minutes"`
}

// ComputeLeaderboard groups completed sessions by owner, sorts by laps
// descending keeping first-seen order among equals, numbers the result
// 1..N and keeps the first limit entries.
func ComputeLeaderboard(ss []Session, limit int) []LeaderboardEntry {
	type agg struct {
		name    string
		laps    int
		minutes float64
	}
	byUser := map[string]*agg{}
	var order []string
	for _, s := range ss {
		if !s.Completed() {
			continue
		}
		uid := s.Reservation.UserID
		a, ok := byUser[uid]
		if !ok {
			a = &agg{name: s.Reservation.UserName}
			byUser[uid] = a
			order = append(order, uid)
		}
		a.laps += s.Attendance.Laps
		if d, ok := s.Attendance.Elapsed(); ok {
			a.minutes += d.Minutes()
		}
	}

	out := make([]LeaderboardEntry, 0, len(order))
	for _, uid := range order {
		a := byUser[uid]
		out = append(out, LeaderboardEntry{
			UserID:       uid,
			UserName:     a.name,
			TotalLaps:    a.laps,
			TotalMeters:  a.laps * model.PoolLengthMeters,
			TotalMinutes: int(math.Round(a.minutes)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalLaps > out[j].TotalLaps })
	for i := range out {
		out[i].Rank = i + 1
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
