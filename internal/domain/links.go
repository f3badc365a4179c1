package domain

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds a single outbound link probe.
const DefaultProbeTimeout = 10 * time.Second

// linkPattern matches an opening anchor tag whose quoted href is an
// absolute http(s) URL.
var linkPattern = regexp.MustCompile(`(?i)<a\s+[^>]*href=["'](https?://[^"']+)["'][^>]*>`)

// CandidateLink is one anchor tag found in text.
type CandidateLink struct {
	Tag string
	URL string
}

// VerifiedLink is the outcome of probing one URL.
type VerifiedLink struct {
	URL     string `json:"url"`
	IsValid bool   `json:"isValid"`
}

// ExtractLinks returns the distinct anchor tags in text that point at an
// http or https URL, in order of first appearance. Tags are deduplicated
// by their full text, so two different tags may carry the same URL.
func ExtractLinks(text string) []CandidateLink {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	matches := linkPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	links := make([]CandidateLink, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m[0]]; dup {
			continue
		}
		seen[m[0]] = struct{}{}
		links = append(links, CandidateLink{Tag: m[0], URL: m[1]})
	}
	return links
}

// LinkChecker verifies links concurrently through a LinkProber.
type LinkChecker struct {
	prober         LinkProber
	probeTimeout   time.Duration
	maxConcurrency int
}

// NewLinkChecker creates a LinkChecker. A probeTimeout <= 0 disables the
// per-probe deadline; maxConcurrency <= 0 leaves probes unbounded.
func NewLinkChecker(prober LinkProber, probeTimeout time.Duration, maxConcurrency int) *LinkChecker {
	return &LinkChecker{
		prober:         prober,
		probeTimeout:   probeTimeout,
		maxConcurrency: maxConcurrency,
	}
}

// Check extracts the links in text and verifies them.
func (c *LinkChecker) Check(ctx context.Context, text string) []VerifiedLink {
	return c.Verify(ctx, ExtractLinks(text))
}

// Verify probes every distinct URL among candidates exactly once and blocks
// until all probes finish. Failures are reported as IsValid=false.
func (c *LinkChecker) Verify(ctx context.Context, candidates []CandidateLink) []VerifiedLink {
	scheduled := newURLSet()
	results := newResultCollector()

	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}
	for _, cand := range candidates {
		if !scheduled.Add(cand.URL) {
			continue
		}
		url := cand.URL
		g.Go(func() error {
			results.Record(url, c.probe(ctx, url))
			return nil
		})
	}
	_ = g.Wait()

	return results.Links()
}

func (c *LinkChecker) probe(ctx context.Context, url string) bool {
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}
	status, err := c.prober.Probe(ctx, url)
	if err != nil {
		return false
	}
	return status >= 200 && status < 300
}

// urlSet is a mutex-guarded set with insert-if-absent semantics.
type urlSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func newURLSet() *urlSet {
	return &urlSet{urls: make(map[string]struct{})}
}

// Add inserts url and reports whether it was absent.
func (s *urlSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urls[url]; ok {
		return false
	}
	s.urls[url] = struct{}{}
	return true
}

// resultCollector keeps the first outcome recorded per URL.
type resultCollector struct {
	mu      sync.Mutex
	results map[string]bool
}

func newResultCollector() *resultCollector {
	return &resultCollector{results: make(map[string]bool)}
}

func (r *resultCollector) Record(url string, valid bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.results[url]; !ok {
		r.results[url] = valid
	}
}

// Links returns one entry per URL, sorted by URL.
func (r *resultCollector) Links() []VerifiedLink {
	r.mu.Lock()
	defer r.mu.Unlock()

	links := make([]VerifiedLink, 0, len(r.results))
	for url, valid := range r.results {
		links = append(links, VerifiedLink{URL: url, IsValid: valid})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].URL < links[j].URL })
	return links
}
