package workspace

import "time"

// HistoryEntry records one past recommendation so it is excluded from the
// candidate pool while the entry remains inside the rotation window.
type HistoryEntry struct {
	Date    string `json:"date"`
	PlaceID string `json:"placeId"`
	Name    string `json:"name"`
}

type historyFile struct {
	LastUpdated string         `json:"lastUpdated"`
	History     []HistoryEntry `json:"history"`
}

// PruneHistory drops entries older than the day window and keeps at most
// maxEntries of the newest remaining ones. Date keys compare lexically
// because they are zero-padded YYYY-MM-DD strings.
func PruneHistory(entries []HistoryEntry, now time.Time, days, maxEntries int) []HistoryEntry {
	if days <= 0 || maxEntries <= 0 {
		return []HistoryEntry{}
	}
	cutoff := DateKey(now.AddDate(0, 0, -days))
	kept := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Date >= cutoff {
			kept = append(kept, entry)
		}
	}
	if len(kept) > maxEntries {
		kept = kept[len(kept)-maxEntries:]
	}
	return kept
}

// UsedPlaceIDs returns the set of place IDs present in the history.
func UsedPlaceIDs(entries []HistoryEntry) map[string]struct{} {
	used := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.PlaceID != "" {
			used[entry.PlaceID] = struct{}{}
		}
	}
	return used
}
