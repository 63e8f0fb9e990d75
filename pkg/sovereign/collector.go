package sovereign

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"shadownexus/pkg/config"
)

const maxPageBytes = 5 << 20

// Item is one collected piece of intelligence from a feed or page.
type Item struct {
	SourceID  string    `json:"source_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Summary   string    `json:"summary,omitempty"`
	Published time.Time `json:"published,omitempty"`
}

// Collector pulls items from RSS feeds and plain web pages.
type Collector struct {
	client *http.Client
	parser *gofeed.Parser
	log    *slog.Logger
}

// NewCollector builds a collector with a bounded request timeout.
func NewCollector(log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		log:    log.With("component", "sovereign.collector"),
	}
}

// Collect pulls items from one configured source based on its type.
func (c *Collector) Collect(ctx context.Context, src config.SourceConfig) ([]Item, error) {
	switch src.Type {
	case "rss":
		return c.collectFeed(ctx, src)
	case "web":
		return c.collectPage(ctx, src)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", src.Type)
	}
}

func (c *Collector) collectFeed(ctx context.Context, src config.SourceConfig) ([]Item, error) {
	body, err := c.get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := c.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.ID, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item := Item{
			SourceID: src.ID,
			Title:    strings.TrimSpace(entry.Title),
			URL:      strings.TrimSpace(entry.Link),
			Summary:  strings.TrimSpace(entry.Description),
		}
		if entry.PublishedParsed != nil {
			item.Published = *entry.PublishedParsed
		}
		items = append(items, item)
	}

	return items, nil
}

func (c *Collector) collectPage(ctx context.Context, src config.SourceConfig) ([]Item, error) {
	body, err := c.get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	root, err := html.Parse(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", src.ID, err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	title := pageTitle(root)
	items := []Item{{SourceID: src.ID, Title: title, URL: src.URL}}
	for _, link := range pageLinks(root, base) {
		if link.Title == "" {
			continue
		}
		link.SourceID = src.ID
		items = append(items, link)
	}

	return items, nil
}

func (c *Collector) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	return resp.Body, nil
}

// pageTitle walks the parsed document for the first <title> element.
func pageTitle(root *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(root)
	return title
}

// pageLinks extracts anchors with text, resolving relative hrefs against base.
func pageLinks(root *html.Node, base *url.URL) []Item {
	var links []Item
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); href != "" {
				if resolved := resolveLink(base, href); resolved != "" {
					links = append(links, Item{Title: nodeText(n), URL: resolved})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return links
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(builder.String())
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
