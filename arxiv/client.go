// Package arxiv downloads papers from the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

const (
	// DefaultBaseURL is the arXiv query API endpoint.
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	// downloadDelay is the polite pause between consecutive PDF downloads,
	// matching arXiv's rate-limit guidance.
	downloadDelay = 1500 * time.Millisecond
)

// Entry is a single paper in an arXiv Atom feed.
type Entry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Links     []Link `xml:"link"`
}

// Link is a related resource of a feed entry.
type Link struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type feed struct {
	Entries []Entry `xml:"entry"`
}

// ArxivID returns the bare arXiv identifier of the entry, without the
// version suffix.
func (e *Entry) ArxivID() string {
	id := e.ID
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	if idx := strings.LastIndex(id, "v"); idx > 0 {
		id = id[:idx]
	}
	return id
}

// PDFLink returns the entry's PDF URL, or "" when none is advertised.
func (e *Entry) PDFLink() string {
	for _, link := range e.Links {
		if link.Rel == "related" && link.Type == "application/pdf" {
			return link.Href
		}
	}
	for _, link := range e.Links {
		if link.Type == "application/pdf" {
			return link.Href
		}
	}
	return ""
}

// Client queries the arXiv API and downloads paper PDFs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the arXiv API endpoint (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewClient creates an arXiv API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default().With("component", "arxiv"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries arXiv and returns up to maxResults entries sorted by
// relevance.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Entry, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv query: unexpected status %s", resp.Status)
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("arxiv feed decode: %w", err)
	}

	c.logger.Info("arxiv search complete", "query", query, "results", len(f.Entries))
	return f.Entries, nil
}

// Download fetches the entry's PDF into dir and returns the saved file name.
// Progress is rendered to stderr.
func (c *Client) Download(ctx context.Context, entry Entry, dir string) (string, error) {
	pdfURL := entry.PDFLink()
	if pdfURL == "" {
		return "", fmt.Errorf("no pdf link for %q", entry.Title)
	}

	fileName := entryFileName(entry)
	filePath := filepath.Join(dir, fileName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", pdfURL, resp.Status)
	}

	out, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, fileName)
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("save %s: %w", fileName, err)
	}

	return fileName, nil
}

// FetchAll searches arXiv and downloads every matching PDF not already
// present in dir (matched by arXiv ID in the file name). Returns the number
// of new downloads. Individual download failures are logged and skipped.
func (c *Client) FetchAll(ctx context.Context, query string, maxResults int, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	entries, err := c.Search(ctx, query, maxResults)
	if err != nil {
		return 0, err
	}

	existing, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	present := make([]string, 0, len(existing))
	for _, f := range existing {
		present = append(present, f.Name())
	}

	downloaded := 0
	for _, entry := range entries {
		if hasArxivID(present, entry.ArxivID()) {
			c.logger.Debug("skipping existing paper", "id", entry.ArxivID())
			continue
		}

		fileName, err := c.Download(ctx, entry, dir)
		if err != nil {
			c.logger.Error("download failed", "title", entry.Title, "err", err)
			continue
		}
		present = append(present, fileName)
		downloaded++

		// Pause between downloads so we stay under arXiv's rate limits.
		select {
		case <-ctx.Done():
			return downloaded, ctx.Err()
		case <-time.After(downloadDelay):
		}
	}

	c.logger.Info("arxiv fetch complete", "downloaded", downloaded)
	return downloaded, nil
}

func hasArxivID(fileNames []string, arxivID string) bool {
	if arxivID == "" {
		return false
	}
	for _, name := range fileNames {
		if strings.Contains(name, arxivID) {
			return true
		}
	}
	return false
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// entryFileName builds a filesystem-safe name of the form <arxivID>-<title>.pdf.
func entryFileName(entry Entry) string {
	title := unsafeFileChars.ReplaceAllString(strings.TrimSpace(entry.Title), "_")
	if len(title) > 50 {
		title = title[:50]
	}
	return entry.ArxivID() + "-" + title + ".pdf"
}
