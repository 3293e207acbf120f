package site

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"

	"medharvest/internal/domain"
)

// Discoverer enumerates candidate entity URLs by running four independent
// strategies and unioning the results. A single strategy under-covers: listing
// pages paginate inconsistently and some entities are reachable only through
// filtered search, so redundancy buys coverage at the cost of scrape time.
type Discoverer struct {
	base     string
	fetcher  domain.PageFetcher
	client   *Client
	ex       *Extractor
	maxPages int

	robotsOnce sync.Once
	robots     *robotstxt.Group
}

func NewDiscoverer(base string, fetcher domain.PageFetcher, client *Client, ex *Extractor, maxPages int) *Discoverer {
	if maxPages <= 0 {
		maxPages = 100
	}
	return &Discoverer{base: strings.TrimRight(base, "/"), fetcher: fetcher, client: client, ex: ex, maxPages: maxPages}
}

// Discover runs all strategies for one entity type. The returned error is
// non-nil only when every strategy failed and nothing was found; any partial
// result is returned without error.
func (d *Discoverer) Discover(ctx context.Context, entity string) ([]string, error) {
	set := newURLSet()

	g, gctx := errgroup.WithContext(ctx)
	strategies := []struct {
		name string
		run  func(context.Context, string, *urlSet) error
	}{
		{"pagination", d.paginate},
		{"location", d.byRegion},
		{"specialty", d.bySpecialty},
		{"sitemap", d.fromSitemap},
	}

	var mu sync.Mutex
	var failures []error
	for _, st := range strategies {
		st := st
		g.Go(func() error {
			if err := st.run(gctx, entity, set); err != nil {
				log.Warn().Str("strategy", st.name).Str("entity", entity).Err(err).Msg("discovery strategy failed")
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			// strategy failure never cancels siblings
			return nil
		})
	}
	_ = g.Wait()

	urls := set.slice()
	if len(urls) == 0 && len(failures) == len(strategies) {
		return nil, fmt.Errorf("all discovery strategies failed: %w", failures[0])
	}
	log.Info().Str("entity", entity).Int("urls", len(urls)).Msg("discovery complete")
	return urls, nil
}

// paginate sweeps /listing?page=N in strictly increasing order. Page N+1 is
// only attempted because page N had content, so this loop never parallelizes.
func (d *Discoverer) paginate(ctx context.Context, entity string, set *urlSet) error {
	for page := 1; page <= d.maxPages; page++ {
		u := fmt.Sprintf("%s%s?page=%d", d.base, listPath(entity), page)
		doc, err := d.load(ctx, u)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		links := d.harvest(ctx, doc, entity, set)
		log.Debug().Int("page", page).Int("links", links).Msg("pagination sweep")
		if links == 0 || !d.ex.HasNextPage(doc) {
			return nil
		}
	}
	log.Warn().Int("ceiling", d.maxPages).Str("entity", entity).Msg("pagination ceiling reached")
	return nil
}

func (d *Discoverer) byRegion(ctx context.Context, entity string, set *urlSet) error {
	var lastErr error
	for _, region := range regions {
		u := fmt.Sprintf("%s%s?location=%s", d.base, listPath(entity), region)
		doc, err := d.load(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Str("region", region).Err(err).Msg("location sweep: region skipped")
			lastErr = err
			continue
		}
		d.harvest(ctx, doc, entity, set)
	}
	return lastErr
}

func (d *Discoverer) bySpecialty(ctx context.Context, entity string, set *urlSet) error {
	var lastErr error
	for _, sp := range specialties {
		u := fmt.Sprintf("%s%s?specialty=%s", d.base, listPath(entity), sp)
		doc, err := d.load(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Str("specialty", sp).Err(err).Msg("specialty sweep: category skipped")
			lastErr = err
			continue
		}
		d.harvest(ctx, doc, entity, set)
	}
	return lastErr
}

type sitemapURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

func (d *Discoverer) fromSitemap(ctx context.Context, entity string, set *urlSet) error {
	var lastErr error
	found := false
	for _, path := range sitemapPaths {
		body, err := d.client.Fetch(ctx, d.base+path)
		if err != nil {
			lastErr = err
			continue
		}
		found = true
		for _, loc := range d.parseSitemap(ctx, body) {
			if d.ex.MatchesEntityURL(loc, entity) && d.allowed(ctx, loc) {
				set.add(strings.TrimRight(loc, "/"))
			}
		}
	}
	if !found {
		return lastErr
	}
	return nil
}

// parseSitemap returns the <loc> entries of a urlset, following one level of
// sitemap index nesting.
func (d *Discoverer) parseSitemap(ctx context.Context, body string) []string {
	var urls sitemapURLSet
	if err := xml.Unmarshal([]byte(body), &urls); err == nil && len(urls.URLs) > 0 {
		out := make([]string, 0, len(urls.URLs))
		for _, u := range urls.URLs {
			out = append(out, strings.TrimSpace(u.Loc))
		}
		return out
	}

	var idx sitemapIndex
	if err := xml.Unmarshal([]byte(body), &idx); err != nil {
		return nil
	}
	var out []string
	for _, sm := range idx.Sitemaps {
		nested, err := d.client.Fetch(ctx, strings.TrimSpace(sm.Loc))
		if err != nil {
			log.Warn().Str("sitemap", sm.Loc).Err(err).Msg("nested sitemap skipped")
			continue
		}
		var inner sitemapURLSet
		if err := xml.Unmarshal([]byte(nested), &inner); err != nil {
			continue
		}
		for _, u := range inner.URLs {
			out = append(out, strings.TrimSpace(u.Loc))
		}
	}
	return out
}

func (d *Discoverer) load(ctx context.Context, url string) (*goquery.Document, error) {
	html, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// harvest adds a page's candidate links to the union and returns how many
// candidates the page carried, not how many were new to the union. A page
// whose links another strategy already found still counts as non-empty for
// the pagination stop condition.
func (d *Discoverer) harvest(ctx context.Context, doc *goquery.Document, entity string, set *urlSet) int {
	links := d.ex.EntityLinks(doc, entity)
	for _, u := range links {
		if !d.allowed(ctx, u) {
			continue
		}
		set.add(u)
	}
	return len(links)
}

// allowed consults robots.txt (loaded once, best effort). A missing or
// unreadable robots.txt permits everything.
func (d *Discoverer) allowed(ctx context.Context, raw string) bool {
	d.robotsOnce.Do(func() {
		body, err := d.client.Fetch(ctx, d.base+"/robots.txt")
		if err != nil {
			log.Debug().Err(err).Msg("robots.txt unavailable")
			return
		}
		data, err := robotstxt.FromString(body)
		if err != nil {
			return
		}
		d.robots = data.FindGroup("*")
	})
	if d.robots == nil {
		return true
	}
	path := raw
	if i := strings.Index(raw, "://"); i >= 0 {
		if j := strings.IndexByte(raw[i+3:], '/'); j >= 0 {
			path = raw[i+3+j:]
		} else {
			path = "/"
		}
	}
	return d.robots.Test(path)
}

func listPath(entity string) string {
	if entity == "treatment" {
		return "/treatments"
	}
	return "/hospitals/india"
}

// urlSet is the strategy union; entity URL is the dedup key.
type urlSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newURLSet() *urlSet { return &urlSet{m: make(map[string]struct{})} }

func (s *urlSet) add(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.m[u]; dup {
		return false
	}
	s.m[u] = struct{}{}
	return true
}

func (s *urlSet) slice() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.m))
	for u := range s.m {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
