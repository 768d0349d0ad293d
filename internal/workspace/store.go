package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"marquee/internal/logging"
)

const (
	contentFileName = "content.json"
	historyFileName = "restaurant_history.json"
	statusFileName  = "restaurant_api_status.json"
)

// Store provides access to the workspace tree rooted at the git working
// directory. Team directories sit directly under the root.
type Store struct {
	root        string
	historyDays int
	historyMax  int
	logger      *slog.Logger
}

// NewStore constructs a workspace store. historyDays and historyMax bound
// the per-team rotation history on every save.
func NewStore(root string, historyDays, historyMax int, logger *slog.Logger) *Store {
	return &Store{
		root:        root,
		historyDays: historyDays,
		historyMax:  historyMax,
		logger:      logging.NewComponentLogger(logger, "workspace"),
	}
}

// Root returns the workspace root directory.
func (s *Store) Root() string {
	return s.root
}

// Teams lists team names: the sorted subdirectories of the workspace root.
// Hidden directories (the .git tree in particular) are skipped.
func (s *Store) Teams() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list workspace root: %w", err)
	}
	teams := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		teams = append(teams, entry.Name())
	}
	sort.Strings(teams)
	return teams, nil
}

// SectionPath returns the absolute path of a team's section content file.
func (s *Store) SectionPath(team, sectionID string) string {
	return filepath.Join(s.root, team, sectionID, contentFileName)
}

// HistoryPath returns the absolute path of a team's rotation history file.
func (s *Store) HistoryPath(team, sectionID string) string {
	return filepath.Join(s.root, team, sectionID, historyFileName)
}

// RelSectionPath returns the section content path relative to the workspace
// root, slash-separated for use as a git pathspec.
func RelSectionPath(team, sectionID string) string {
	return team + "/" + sectionID + "/" + contentFileName
}

// RelHistoryPath returns the history path relative to the workspace root,
// slash-separated for use as a git pathspec.
func RelHistoryPath(team, sectionID string) string {
	return team + "/" + sectionID + "/" + historyFileName
}

// ReadSection loads a team's section document. A missing file yields
// (nil, nil): the team simply has no content for this section yet.
func (s *Store) ReadSection(team, sectionID string) (*SectionDocument, error) {
	raw, err := os.ReadFile(s.SectionPath(team, sectionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read section %s/%s: %w", team, sectionID, err)
	}
	var doc SectionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse section %s/%s: %w", team, sectionID, err)
	}
	return &doc, nil
}

// WriteSection persists a team's section document as pretty-printed JSON.
func (s *Store) WriteSection(team, sectionID string, doc *SectionDocument) error {
	path := s.SectionPath(team, sectionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create section directory: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode section %s/%s: %w", team, sectionID, err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write section %s/%s: %w", team, sectionID, err)
	}
	return nil
}

// LoadHistory returns a team's rotation history. Missing or unreadable
// history degrades to empty: the worst case is recommending a recent repeat.
func (s *Store) LoadHistory(team, sectionID string) []HistoryEntry {
	raw, err := os.ReadFile(s.HistoryPath(team, sectionID))
	if err != nil {
		return nil
	}
	var file historyFile
	if err := json.Unmarshal(raw, &file); err != nil {
		s.logger.Warn("history file unreadable; starting fresh",
			logging.String(logging.FieldTeam, team),
			logging.Error(err),
		)
		return nil
	}
	return file.History
}

// SaveHistory persists a team's rotation history, pruned to the configured
// day window and entry cap.
func (s *Store) SaveHistory(team, sectionID string, entries []HistoryEntry, now time.Time) error {
	path := s.HistoryPath(team, sectionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create section directory: %w", err)
	}
	file := historyFile{
		LastUpdated: DateKey(now),
		History:     PruneHistory(entries, now, s.historyDays, s.historyMax),
	}
	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history %s/%s: %w", team, sectionID, err)
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write history %s/%s: %w", team, sectionID, err)
	}
	return nil
}

// StatusPath returns the absolute path of the shared status file.
func (s *Store) StatusPath() string {
	return filepath.Join(s.root, statusFileName)
}

// WriteStatus persists the coordinator status file the displays poll.
func (s *Store) WriteStatus(status Status) error {
	raw, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	raw = append(raw, '\n')
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	if err := os.WriteFile(s.StatusPath(), raw, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// ReadStatus loads the status file. Missing status yields the zero value.
func (s *Store) ReadStatus() (Status, error) {
	raw, err := os.ReadFile(s.StatusPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Status{Message: "Never run"}, nil
		}
		return Status{}, fmt.Errorf("read status: %w", err)
	}
	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return Status{}, fmt.Errorf("parse status: %w", err)
	}
	return status, nil
}

// DateKey formats a timestamp as the local calendar date (YYYY-MM-DD). The
// daily cycle follows wall-clock days where the kiosks actually hang, so
// this is deliberately not UTC.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
