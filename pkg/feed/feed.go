package feed

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/afero"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/unt-scan/pkg/config"
	"github.com/aquasecurity/unt-scan/pkg/log"
	"github.com/aquasecurity/unt-scan/pkg/types"
	"github.com/aquasecurity/unt-scan/pkg/utils"
)

const defaultRetryInterval = 2 * time.Second

// Source tells where the returned body came from.
type Source int

const (
	// SourceFresh means the body was downloaded during this fetch.
	SourceFresh Source = iota
	// SourceCached means the body was read from the storage directory.
	SourceCached
)

func (s Source) String() string {
	switch s {
	case SourceFresh:
		return "fresh"
	case SourceCached:
		return "cached"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

type Result struct {
	Body   []byte
	Source Source
}

type Client struct {
	url           string
	dir           string
	bodyPath      string
	persistent    bool
	cacheFallback bool

	fs        afero.Fs
	clock     clock.Clock
	metadata  metadataStore
	transport transport
	logger    *log.Logger
}

type Option func(*Client)

func WithFs(fs afero.Fs) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

func WithClock(clock clock.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.transport.retryInterval = interval
	}
}

// NewClient returns a feed client for conf. version ends up in the User-Agent header.
func NewClient(conf config.Config, version string, opts ...Option) *Client {
	logger := log.WithPrefix("feed")
	c := &Client{
		url:           conf.URL(),
		dir:           conf.Directory,
		bodyPath:      conf.FeedPath(),
		persistent:    conf.PersistentStorage,
		cacheFallback: conf.CacheFallback,
		fs:            afero.NewOsFs(),
		clock:         clock.RealClock{},
		transport: transport{
			userAgent:     "unt-scan " + version,
			timeout:       conf.Timeout,
			retries:       conf.Retries,
			retryInterval: defaultRetryInterval,
			logger:        logger,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metadata = metadataStore{
		fs:       c.fs,
		filePath: conf.FeedMetadataPath(),
	}
	return c
}

// Fetch returns the current feed body, downloading it only when the cached
// copy is missing or stale.
func (c *Client) Fetch(ctx context.Context) (Result, error) {
	eb := oops.In("feed").With("url", c.url)

	if !c.persistent {
		res, err := c.transport.get(ctx, c.url)
		if err != nil {
			return Result{}, eb.Wrapf(err, "feed download error")
		}
		return Result{Body: res.body, Source: SourceFresh}, nil
	}

	if err := utils.EnsureDir(c.fs, c.dir); err != nil {
		return Result{}, eb.Wrapf(err, "storage directory error")
	}

	result, err := c.fetch(ctx)
	if err != nil && c.cacheFallback && types.KindOf(err) == types.KindTransport {
		if body, ok := c.cachedBody(); ok {
			c.logger.Warn("Feed download failed, using the cached copy", log.Err(err))
			return Result{Body: body, Source: SourceCached}, nil
		}
	}
	if err != nil {
		return Result{}, eb.Wrapf(err, "feed fetch error")
	}
	return result, nil
}

func (c *Client) fetch(ctx context.Context) (Result, error) {
	head, err := c.transport.head(ctx, c.url)
	if err != nil {
		return Result{}, err
	}
	latest := newMetadata(head.headers, c.clock.Now())

	prev, ok, err := c.metadata.Get()
	if err != nil {
		c.logger.Warn("Ignoring unreadable feed metadata", log.Err(err))
		ok = false
	}

	if ok && prev.IsFresh(latest) {
		if body, found := c.cachedBody(); found {
			c.logger.Debug("Feed is up to date", log.String("etag", prev.ETag),
				log.String("last_modified", prev.LastModified))
			return Result{Body: body, Source: SourceCached}, nil
		}
		c.logger.Debug("Cached feed body is missing", log.FilePath(c.bodyPath))
	}

	res, err := c.transport.get(ctx, c.url)
	if err != nil {
		return Result{}, err
	}
	if err = utils.WriteFileAtomic(c.fs, c.bodyPath, res.body); err != nil {
		return Result{}, oops.Wrapf(err, "feed body write error")
	}

	headers := maps.Clone(head.headers)
	maps.Copy(headers, res.headers)
	if err = c.metadata.Update(newMetadata(headers, c.clock.Now())); err != nil {
		return Result{}, oops.Wrapf(err, "feed metadata write error")
	}
	c.logger.Debug("Feed updated", log.FilePath(c.bodyPath), log.Int("bytes", len(res.body)))
	return Result{Body: res.body, Source: SourceFresh}, nil
}

func (c *Client) cachedBody() ([]byte, bool) {
	body, err := afero.ReadFile(c.fs, c.bodyPath)
	if err != nil {
		return nil, false
	}
	return body, true
}

// Age returns how long ago the cached feed was last modified upstream.
func (c *Client) Age() (time.Duration, error) {
	m, ok, err := c.metadata.Get()
	if err != nil {
		return 0, oops.In("feed").Wrapf(err, "metadata read error")
	} else if !ok {
		return 0, oops.In("feed").Code(types.KindStorage).Errorf("no cached feed")
	}
	lastModified, err := m.LastModifiedTime()
	if err != nil {
		return 0, oops.In("feed").Code(types.KindStorage).Wrapf(err, "invalid Last-Modified")
	}
	return c.clock.Since(lastModified), nil
}
