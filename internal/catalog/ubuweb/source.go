package ubuweb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"radiobank/internal/catalog"
	"radiobank/internal/logging"
)

// DefaultIndexURL is the UbuWeb sound catalog index.
const DefaultIndexURL = "https://www.ubu.com/sound/index.html"

// nominalBitrateKbps is used to estimate clip durations from the payload size
// reported by HEAD probes; UbuWeb serves constant-rate MP3s almost
// exclusively, so the estimate is close enough for fill planning.
const nominalBitrateKbps = 128

// Source crawls the UbuWeb sound catalog: the index page links section pages,
// which link MP3 payloads. It doubles as the payload resolver.
type Source struct {
	indexURL string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	titler   cases.Caser
}

// Option configures the source.
type Option func(*Source)

// WithIndexURL overrides the catalog index location.
func WithIndexURL(indexURL string) Option {
	return func(s *Source) {
		if indexURL != "" {
			s.indexURL = indexURL
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.client = client
		}
	}
}

// WithRequestsPerSecond bounds the crawl rate.
func WithRequestsPerSecond(rps float64) Option {
	return func(s *Source) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Source with defaults.
func New(opts ...Option) *Source {
	source := &Source{
		indexURL: DefaultIndexURL,
		client:   &http.Client{Timeout: 60 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(4), 1),
		logger:   logging.NewNop(),
		titler:   cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(source)
	}
	source.logger = logging.WithComponent(source.logger, "ubuweb")
	return source
}

// Name implements catalog.Source.
func (s *Source) Name() string { return "ubuweb" }

// FetchSections crawls the index and every section page, returning sections
// of clips with estimated durations. Repeated calls against an unchanged
// catalog yield the same set.
func (s *Source) FetchSections(ctx context.Context) ([]catalog.Section, error) {
	index, err := url.Parse(s.indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}
	soundRoot := index.ResolveReference(&url.URL{Path: "./"})

	links, err := s.extractLinks(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog index: %w", err)
	}

	var sections []catalog.Section
	seen := make(map[string]struct{})
	for _, link := range links {
		if !isSectionLink(soundRoot, index, link) {
			continue
		}
		id := slugFromURL(link)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		section, err := s.fetchSection(ctx, id, link)
		if err != nil {
			s.logger.Warn("skipping unreadable section",
				logging.String(logging.FieldSection, id), logging.Error(err))
			continue
		}
		sections = append(sections, section)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("no sections found on %s", s.indexURL)
	}
	return sections, nil
}

func (s *Source) fetchSection(ctx context.Context, id string, pageURL *url.URL) (catalog.Section, error) {
	section := catalog.Section{ID: id, Name: s.sectionName(id)}

	links, err := s.extractLinks(ctx, pageURL)
	if err != nil {
		return section, err
	}
	for _, link := range links {
		if !strings.HasSuffix(strings.ToLower(link.Path), ".mp3") {
			continue
		}
		if link.Host != pageURL.Host {
			continue
		}
		duration, err := s.probeDuration(ctx, link)
		if err != nil {
			s.logger.Debug("skipping unprobeable clip",
				logging.String(logging.FieldClip, link.String()), logging.Error(err))
			continue
		}
		section.Clips = append(section.Clips, catalog.Clip{
			ID:         slugFromURL(link),
			Duration:   duration,
			PayloadRef: link.String(),
		})
	}
	return section, nil
}

// probeDuration estimates a clip's length from its payload size.
func (s *Source) probeDuration(ctx context.Context, link *url.URL) (time.Duration, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength <= 0 {
		return 0, fmt.Errorf("no content length")
	}
	seconds := float64(resp.ContentLength*8) / float64(nominalBitrateKbps*1000)
	return time.Duration(seconds * float64(time.Second)), nil
}

// Resolve implements catalog.Resolver by streaming the clip payload.
func (s *Source) Resolve(ctx context.Context, payloadRef string) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payloadRef, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", payloadRef, resp.Status)
	}
	return resp.Body, nil
}

// extractLinks fetches a page and returns every hyperlink resolved against it.
func (s *Source) extractLinks(ctx context.Context, pageURL *url.URL) ([]*url.URL, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var links []*url.URL
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			for _, attr := range node.Attr {
				if attr.Key != "href" {
					continue
				}
				if resolved, parseErr := pageURL.Parse(strings.TrimSpace(attr.Val)); parseErr == nil {
					links = append(links, resolved)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links, nil
}

// isSectionLink keeps links under the sound root, excluding the index itself.
func isSectionLink(soundRoot, index, link *url.URL) bool {
	if link.Host != soundRoot.Host {
		return false
	}
	if !strings.HasPrefix(link.Path, soundRoot.Path) {
		return false
	}
	return link.Path != index.Path && link.Path != soundRoot.Path
}

func (s *Source) sectionName(id string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return s.titler.String(words)
}

// slugFromURL derives a stable identifier from a URL path.
func slugFromURL(link *url.URL) string {
	trimmed := strings.Trim(link.Path, "/")
	trimmed = strings.TrimSuffix(trimmed, path.Ext(trimmed))
	return strings.ReplaceAll(trimmed, "/", "-")
}

var (
	_ catalog.Source   = (*Source)(nil)
	_ catalog.Resolver = (*Source)(nil)
)
