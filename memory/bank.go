package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
)

const memorySuffix = ".json"

// ResearchMemory is one remembered research run.
type ResearchMemory struct {
	ID              string         `json:"memory_id"`
	Query           string         `json:"query"`
	Timestamp       time.Time      `json:"timestamp"`
	PapersAnalyzed  int            `json:"papers_analyzed"`
	KeyFindings     []string       `json:"key_findings"`
	EvidenceQuality float64        `json:"evidence_quality"`
	ReportPath      string         `json:"report_path,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Summary aggregates the bank's contents.
type Summary struct {
	TotalMemories       int       `json:"total_memories"`
	TotalPapersAnalyzed int       `json:"total_papers_analyzed"`
	AverageQuality      float64   `json:"average_quality"`
	OldestMemory        time.Time `json:"oldest_memory,omitzero"`
	NewestMemory        time.Time `json:"newest_memory,omitzero"`
}

// Bank stores research memories as one JSON file each under a storage
// directory, with an in-memory cache loaded at construction. Safe for
// concurrent use.
type Bank struct {
	dir    string
	logger logging.Logger

	mu       sync.RWMutex
	memories map[string]*ResearchMemory
}

// NewBank creates the storage directory if needed and loads existing
// memories. Unreadable files are logged and skipped.
func NewBank(dir string, logger logging.Logger) (*Bank, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir %q: %w", dir, err)
	}
	b := &Bank{dir: dir, logger: logger, memories: make(map[string]*ResearchMemory)}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bank) load() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("load memories: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), memorySuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.dir, e.Name()))
		if err != nil {
			b.logger.Warn("skipping unreadable memory file", "file", e.Name(), "error", err)
			continue
		}
		var m ResearchMemory
		if err := json.Unmarshal(data, &m); err != nil {
			b.logger.Warn("skipping corrupt memory file", "file", e.Name(), "error", err)
			continue
		}
		b.memories[m.ID] = &m
	}
	return nil
}

// Store persists a memory, generating an id and timestamp when absent.
func (b *Bank) Store(m ResearchMemory) (*ResearchMemory, error) {
	if m.ID == "" {
		m.ID = core.NewID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	data, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode memory %q: %w", m.ID, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.WriteFile(filepath.Join(b.dir, m.ID+memorySuffix), data, 0o644); err != nil {
		return nil, fmt.Errorf("store memory %q: %w", m.ID, err)
	}
	b.memories[m.ID] = &m
	return &m, nil
}

// Get returns a memory by id or core.ErrNotFound.
func (b *Bank) Get(id string) (*ResearchMemory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.memories[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// Search returns memories whose query or findings contain any word of the
// search query (case insensitive), most recent first, up to limit.
func (b *Bank) Search(query string, limit int) []*ResearchMemory {
	words := strings.Fields(strings.ToLower(query))
	b.mu.RLock()
	var matches []*ResearchMemory
	for _, m := range b.memories {
		text := strings.ToLower(m.Query + " " + strings.Join(m.KeyFindings, " "))
		for _, w := range words {
			if strings.Contains(text, w) {
				cp := *m
				matches = append(matches, &cp)
				break
			}
		}
	}
	b.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Recent returns the newest memories, most recent first, up to limit.
func (b *Bank) Recent(limit int) []*ResearchMemory {
	b.mu.RLock()
	all := make([]*ResearchMemory, 0, len(b.memories))
	for _, m := range b.memories {
		cp := *m
		all = append(all, &cp)
	}
	b.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Summary returns aggregate statistics over the bank.
func (b *Bank) Summary() Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := Summary{TotalMemories: len(b.memories)}
	if s.TotalMemories == 0 {
		return s
	}
	var qualitySum float64
	for _, m := range b.memories {
		s.TotalPapersAnalyzed += m.PapersAnalyzed
		qualitySum += m.EvidenceQuality
		if s.OldestMemory.IsZero() || m.Timestamp.Before(s.OldestMemory) {
			s.OldestMemory = m.Timestamp
		}
		if m.Timestamp.After(s.NewestMemory) {
			s.NewestMemory = m.Timestamp
		}
	}
	s.AverageQuality = qualitySum / float64(s.TotalMemories)
	return s
}

// ClearOlderThan removes memories older than the retention window and
// returns how many were deleted.
func (b *Bank) ClearOlderThan(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	b.mu.Lock()
	defer b.mu.Unlock()
	deleted := 0
	for id, m := range b.memories {
		if m.Timestamp.Before(cutoff) {
			if err := os.Remove(filepath.Join(b.dir, id+memorySuffix)); err != nil && !os.IsNotExist(err) {
				return deleted, fmt.Errorf("clear memory %q: %w", id, err)
			}
			delete(b.memories, id)
			deleted++
		}
	}
	return deleted, nil
}
