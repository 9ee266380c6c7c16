package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/pkg/logger"
	"golang-market-chat/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
)

// ErrForbiddenDestination is returned when a linked page resolves to a non-public address.
var ErrForbiddenDestination = errors.New("destination address is not public")

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// PageContentRepository extracts readable text from a web page.
type PageContentRepository interface {
	Extract(ctx context.Context, url string) (string, error)
}

type pageContentRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	client *http.Client
}

// NewPageContentRepository creates a new PageContentRepository.
func NewPageContentRepository(cfg *config.Config, log *logger.Logger) PageContentRepository {
	return &pageContentRepository{
		cfg:    cfg,
		logger: log,
		client: newScraperClient(cfg),
	}
}

// newScraperClient checks every dialed address, after DNS resolution and on each
// redirect hop. Proxies are disabled since they would dial on the client's behalf.
func newScraperClient(cfg *config.Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.Scraper.Timeout,
		KeepAlive: 30 * time.Second,
	}
	if !cfg.Scraper.AllowPrivateHosts {
		dialer.Control = publicOnlyControl
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   cfg.Scraper.Timeout,
		Transport: transport,
	}
}

func publicOnlyControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenDestination, host)
	}
	return nil
}

func isPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() &&
		!ip.IsUnspecified() &&
		!ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!sharedAddressSpace.Contains(ip)
}

// Extract fetches url and returns its main article text, bounded to the configured character budget.
func (r *pageContentRepository) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for page: %w", err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return "", fmt.Errorf("unsupported page scheme %q", req.URL.Scheme)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to fetch page content", logger.ErrorField(err), logger.StringField("url", url))
		return "", fmt.Errorf("failed to fetch page content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "Failed to fetch page content with non-200 status", logger.IntField("status", resp.StatusCode), logger.StringField("url", url))
		return "", fmt.Errorf("failed to fetch page content, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.Scraper.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse page content: %w", err)
	}
	docHTML, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(doc.Content())))
	if err != nil {
		return "", fmt.Errorf("failed to parse page content: %w", err)
	}

	content := utils.CollapseWhitespace(strings.TrimSpace(docHTML.Text()))
	if content == "" {
		// readability found no article body; fall back to the whole document text
		full, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err == nil {
			full.Find("script, style, noscript").Remove()
			content = utils.CollapseWhitespace(full.Find("body").Text())
		}
	}

	return utils.TruncateRunes(utils.SafeText(content), r.cfg.Scraper.MaxChars), nil
}
