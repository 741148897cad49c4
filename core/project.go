package core

import "sort"

// SortByRank orders records in place by wins descending, identity ascending.
// The secondary order keeps snapshots reproducible when win counts tie.
func SortByRank(records []PlayerRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Wins == records[j].Wins {
			return records[i].Identity < records[j].Identity
		}
		return records[i].Wins > records[j].Wins
	})
}

// Project computes the ranked top-n view of the given records. It is pure:
// no side effects, deterministic for identical input, and safe to call
// concurrently. A non-positive n yields an empty snapshot.
func Project(records []PlayerRecord, n int) LeaderboardSnapshot {
	if n <= 0 {
		return LeaderboardSnapshot{}
	}
	rs := make([]PlayerRecord, len(records))
	copy(rs, records)
	SortByRank(rs)
	if len(rs) > n {
		rs = rs[:n]
	}
	snap := make(LeaderboardSnapshot, 0, len(rs))
	for _, r := range rs {
		snap = append(snap, LeaderboardEntry{Identity: r.Identity, Wins: r.Wins})
	}
	return snap
}
