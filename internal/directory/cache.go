package directory

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Recorder receives directory metrics.
type Recorder interface {
	RecordFetch(outcome string)
	RecordRefresh(records int, at time.Time)
}

type nilRecorder struct{}

func (nilRecorder) RecordFetch(string)           {}
func (nilRecorder) RecordRefresh(int, time.Time) {}

type Options struct {
	URL     string
	Key     string
	TTL     time.Duration
	Store   Store
	Fetcher Fetcher
	Metrics Recorder
	Logger  logrus.FieldLogger
	Now     func() time.Time
}

// Cache serves the directory from a Store and refetches it once the stored
// copy is older than the TTL. The fetch time is stored under key + "_date".
type Cache struct {
	url     string
	key     string
	ttl     time.Duration
	store   Store
	fetcher Fetcher
	metrics Recorder
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewCache(opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, errors.New("directory: store is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("directory: fetcher is required")
	}

	c := &Cache{
		url:     opts.URL,
		key:     opts.Key,
		ttl:     opts.TTL,
		store:   opts.Store,
		fetcher: opts.Fetcher,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.key == "" {
		c.key = DefaultKey
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.metrics == nil {
		c.metrics = nilRecorder{}
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func (c *Cache) dateKey() string {
	return c.key + "_date"
}

// Fetch returns the directory, refetching when forced, when nothing usable is
// stored or when the stored copy has expired. A failed refetch is returned as
// an error even if an expired copy exists.
func (c *Cache) Fetch(ctx context.Context, forceRefresh bool) (Response, error) {
	now := c.now()
	cached, fetchedAt, ok := c.load()

	if !forceRefresh && ok && !fetchedAt.Before(now.Add(-c.ttl)) {
		c.metrics.RecordFetch("hit")
		return cached, nil
	}

	resp, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		c.metrics.RecordFetch("error")
		c.logger.WithError(err).Error("directory: failed to fetch memo-required list")
		return Response{}, err
	}

	if err := c.save(resp, now); err != nil {
		c.logger.WithError(err).Warn("directory: failed to persist memo-required list")
	}
	c.metrics.RecordRefresh(len(resp.Embedded.Records), now)
	return resp, nil
}

func (c *Cache) load() (Response, time.Time, bool) {
	raw, err := c.store.Get(c.key)
	if err != nil {
		c.logger.WithError(err).Warn("directory: failed to read cached list")
		return Response{}, time.Time{}, false
	}
	if raw == nil {
		return Response{}, time.Time{}, false
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.WithError(err).Error("directory: cached list is not valid JSON")
		return Response{}, time.Time{}, false
	}

	var fetchedAt time.Time
	dateRaw, err := c.store.Get(c.dateKey())
	if err == nil && dateRaw != nil {
		if ms, err := strconv.ParseInt(string(dateRaw), 10, 64); err == nil {
			fetchedAt = time.UnixMilli(ms)
		}
	}
	return resp, fetchedAt, true
}

func (c *Cache) save(resp Response, at time.Time) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := c.store.Put(c.key, raw); err != nil {
		return err
	}
	return c.store.Put(c.dateKey(), []byte(strconv.FormatInt(at.UnixMilli(), 10)))
}

// MemoRequiredAccounts lists the addresses tagged memo-required.
func (c *Cache) MemoRequiredAccounts(ctx context.Context) ([]string, error) {
	resp, err := c.Fetch(ctx, false)
	if err != nil {
		return nil, err
	}

	var out []string
	seen := make(map[string]struct{})
	for _, r := range resp.Embedded.Records {
		if !r.HasTag(MemoRequiredTag) {
			continue
		}
		if _, dup := seen[r.Address]; dup {
			continue
		}
		seen[r.Address] = struct{}{}
		out = append(out, r.Address)
	}
	return out, nil
}

// MemoRequired reports whether account is listed as memo-required. false
// only means the directory does not know the account.
func (c *Cache) MemoRequired(ctx context.Context, account string) (bool, error) {
	resp, err := c.Fetch(ctx, false)
	if err != nil {
		return false, err
	}
	for _, r := range resp.Embedded.Records {
		if r.Address == account && r.HasTag(MemoRequiredTag) {
			return true, nil
		}
	}
	return false, nil
}
