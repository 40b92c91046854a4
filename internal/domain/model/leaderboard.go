package model

import "sort"

const LeaderboardLimit = 10

type LeaderboardEntry struct {
	Rank               int    `json:"rank"`
	UserID             string `json:"userId"`
	TotalScore         int    `json:"totalScore"`
	CompletedQuestions int    `json:"completedQuestions"`
}

// RankLeaderboard orders progress records by total score, highest first,
// breaking ties by user id, and keeps the first limit entries.
func RankLeaderboard(progress []*UserProgress, limit int) []LeaderboardEntry {
	sorted := append([]*UserProgress(nil), progress...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalScore != sorted[j].TotalScore {
			return sorted[i].TotalScore > sorted[j].TotalScore
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]LeaderboardEntry, 0, len(sorted))
	for i, p := range sorted {
		entries = append(entries, LeaderboardEntry{
			Rank:               i + 1,
			UserID:             p.UserID,
			TotalScore:         p.TotalScore,
			CompletedQuestions: len(p.CompletedQuestions),
		})
	}
	return entries
}
