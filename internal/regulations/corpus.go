// internal/regulations/corpus.go

// Package regulations serves the static acquisition-regulation corpus: a
// JSON file of sections loaded once at startup into an in-memory inverted
// keyword index. All lookups after load are synchronous and allocation-light.
package regulations

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"spendquery/internal/common/logger"
	"spendquery/internal/query"
	"spendquery/internal/scoring"
)

// Section is one regulation section.
type Section struct {
	ID    string `json:"id"`
	Part  string `json:"part"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Corpus is the loaded section set with its keyword index. Immutable after
// Load, safe for concurrent readers.
type Corpus struct {
	sections map[string]*Section
	ordered  []string
	index    map[string][]indexEntry
}

// indexEntry records how often a token occurs in one section.
type indexEntry struct {
	sectionID string
	frequency int
}

// Load reads a corpus JSON file and builds the inverted index.
func Load(path string, log logger.Logger) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}

	var sections []*Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", path, err)
	}

	c := &Corpus{
		sections: make(map[string]*Section, len(sections)),
		index:    make(map[string][]indexEntry),
	}
	for _, s := range sections {
		if s.ID == "" {
			continue
		}
		if _, dup := c.sections[s.ID]; dup {
			return nil, fmt.Errorf("corpus %s: duplicate section id %q", path, s.ID)
		}
		c.sections[s.ID] = s
		c.ordered = append(c.ordered, s.ID)
		c.indexSection(s)
	}
	sort.Strings(c.ordered)

	log.Info("regulation corpus loaded", map[string]interface{}{
		"path":     path,
		"sections": len(c.sections),
		"tokens":   len(c.index),
	})
	return c, nil
}

func (c *Corpus) indexSection(s *Section) {
	counts := make(map[string]int)
	for _, tok := range tokenizeText(s.Title + " " + s.Body) {
		counts[tok]++
	}
	for tok, n := range counts {
		c.index[tok] = append(c.index[tok], indexEntry{sectionID: s.ID, frequency: n})
	}
}

// GetSection returns a section by id, reporting absence without error.
func (c *Corpus) GetSection(id string) (*Section, bool) {
	s, ok := c.sections[id]
	return s, ok
}

// Len returns the number of loaded sections.
func (c *Corpus) Len() int { return len(c.sections) }

// SearchByKeyword returns the sections containing the keyword, ordered by
// descending occurrence frequency with ties broken by ascending section id.
func (c *Corpus) SearchByKeyword(keyword string) []*Section {
	entries := c.index[strings.ToLower(strings.TrimSpace(keyword))]
	if len(entries) == 0 {
		return nil
	}

	sorted := make([]indexEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].frequency != sorted[b].frequency {
			return sorted[a].frequency > sorted[b].frequency
		}
		return sorted[a].sectionID < sorted[b].sectionID
	})

	out := make([]*Section, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, c.sections[e.sectionID])
	}
	return out
}

// Search runs a multi-keyword query, merging per-keyword hits and scoring
// each candidate section with the shared relevance scorer. Sections scoring
// zero are dropped.
func (c *Corpus) Search(parsed query.ParsedQuery) []ScoredSection {
	candidates := make(map[string]*Section)
	for _, kw := range parsed.KeywordTexts() {
		for _, s := range c.SearchByKeyword(kw) {
			candidates[s.ID] = s
		}
	}

	var out []ScoredSection
	for _, id := range c.ordered {
		s, ok := candidates[id]
		if !ok {
			continue
		}
		explanation := ScoreSection(parsed, s)
		if explanation.Score == 0 {
			continue
		}
		out = append(out, ScoredSection{Section: s, Explanation: explanation})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Explanation.Score != out[b].Explanation.Score {
			return out[a].Explanation.Score > out[b].Explanation.Score
		}
		return out[a].Section.ID < out[b].Section.ID
	})
	return out
}

// ScoredSection pairs a section with its relevance explanation.
type ScoredSection struct {
	Section     *Section                 `json:"section"`
	Explanation scoring.MatchExplanation `json:"explanation"`
}

// ScoreSection applies the award scoring contract to a regulation section by
// treating its title and body as the description field.
func ScoreSection(parsed query.ParsedQuery, s *Section) scoring.MatchExplanation {
	var fields scoring.Fields
	if s != nil {
		fields.Description = s.Title + " " + s.Body
	}
	return scoring.Score(parsed, fields, nil)
}

// tokenizeText lowercases and splits on non-alphanumeric runs, dropping
// single-character tokens.
func tokenizeText(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
