package opentopo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hydroflow/internal/core/geo"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"

	"github.com/gosuri/uiprogress"
)

const (
	// DefaultBaseURL is the public globaldem endpoint
	DefaultBaseURL = "https://portal.opentopography.org/API/globaldem"
	// DefaultDEMType is ALOS World 3D 30 m
	DefaultDEMType = "AW3D30"
	// RawFileName is the downloaded tile name inside the temp dir
	RawFileName = "alos_raw.tif"

	chunkSize      = 1 << 20
	defaultTimeout = 300 * time.Second
)

// Client fetches DEM tiles
type Client struct {
	BaseURL  string
	DEMType  string
	APIKey   string
	HTTP     *http.Client
	Progress bool
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another endpoint (tests, mirrors)
func WithBaseURL(u string) Option { return func(c *Client) { c.BaseURL = u } }

// WithHTTPClient swaps the HTTP client
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

// WithProgress renders a terminal progress bar while downloading
func WithProgress(on bool) Option { return func(c *Client) { c.Progress = on } }

// New builds a Client for apiKey with a 300 s transfer timeout
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		BaseURL: DefaultBaseURL,
		DEMType: DefaultDEMType,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// requestURL builds the globaldem query for bbox
func (c *Client) requestURL(b geo.BBox) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeNetwork, "bad DEM endpoint %q", c.BaseURL)
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	q := u.Query()
	q.Set("demtype", c.DEMType)
	q.Set("south", f(b.South))
	q.Set("north", f(b.North))
	q.Set("west", f(b.West))
	q.Set("east", f(b.East))
	q.Set("outputFormat", "GTiff")
	q.Set("API_Key", c.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Download fetches the tile covering b into dir/alos_raw.tif and returns its path
func (c *Client) Download(ctx context.Context, b geo.BBox, dir string) (string, error) {
	log := logger.C(ctx).With().Str("component", "opentopo").Logger()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeFilesystem, "create download dir %s", dir)
	}
	dst := filepath.Join(dir, RawFileName)

	reqURL, err := c.requestURL(b)
	if err != nil {
		return "", err
	}
	log.Info().Str("bbox", b.String()).Str("demtype", c.DEMType).Msg("downloading DEM")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeNetwork, "build DEM request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		// the URL carries the API key; keep it out of the message
		return "", perr.Wrap(unwrapURLError(err), perr.ErrorCodeNetwork, "DEM request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", perr.Newf(perr.ErrorCodeNetwork, "opentopo: unexpected status %d: %s", resp.StatusCode, excerpt)
	}

	n, err := c.store(resp, dst)
	if err != nil {
		return "", err
	}
	log.Info().Str("path", dst).Float64("size_mib", float64(n)/chunkSize).Msg("DEM downloaded")
	return dst, nil
}

// store streams the body to dst via dst.part
func (c *Client) store(resp *http.Response, dst string) (int64, error) {
	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeFilesystem, "create %s", tmp)
	}
	defer func() { _ = os.Remove(tmp) }()

	var w io.Writer = out
	if c.Progress && resp.ContentLength > 0 {
		bar := startBar(resp.ContentLength)
		defer uiprogress.Stop()
		w = &progressWriter{w: out, bar: bar}
	} else {
		w = struct{ io.Writer }{out}
	}

	n, werr := io.CopyBuffer(w, resp.Body, make([]byte, chunkSize))
	cerr := out.Close()
	if werr != nil {
		return n, perr.Wrap(werr, perr.ErrorCodeNetwork, "DEM transfer interrupted")
	}
	if cerr != nil {
		return n, perr.Wrapf(cerr, perr.ErrorCodeFilesystem, "close %s", tmp)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return n, perr.Wrapf(err, perr.ErrorCodeFilesystem, "rename %s", tmp)
	}
	return n, nil
}

func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
