package resolver

import "time"

// defaultTimeZone is the IANA zone the daemon stamps dateModified with when
// none is configured.
const defaultTimeZone = "Europe/Kiev"

// Options configures a Resolver. Built from DefaultOptions plus a chain of
// With... closures.
type Options struct {
	// TimeZone is used to format dateModified on a successful merge.
	TimeZone *time.Location

	// GetTimeout bounds each sibling fetch.
	GetTimeout time.Duration

	// SaveTimeout bounds the merged-winner write.
	SaveTimeout time.Duration

	// DeleteTimeout bounds the tombstone bulk update.
	DeleteTimeout time.Duration

	// DumpDir, if set, writes the winner and each fetched sibling body to
	// disk before processing, for forensic replay.
	DumpDir string
}

// Option configures an Options value.
type Option func(*Options)

// DefaultOptions returns the baseline configuration: Europe/Kiev, 10s
// timeouts on every suspension point, dumping disabled.
func DefaultOptions() *Options {
	loc, err := time.LoadLocation(defaultTimeZone)
	if err != nil {
		loc = time.UTC
	}
	return &Options{
		TimeZone:      loc,
		GetTimeout:    10 * time.Second,
		SaveTimeout:   10 * time.Second,
		DeleteTimeout: 10 * time.Second,
	}
}

// NewOptions builds an Options from DefaultOptions with opts applied in
// order.
func NewOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTimeZone overrides the configured IANA zone for dateModified
// formatting.
func WithTimeZone(loc *time.Location) Option {
	return func(o *Options) { o.TimeZone = loc }
}

// WithGetTimeout overrides the per-sibling fetch timeout.
func WithGetTimeout(d time.Duration) Option {
	return func(o *Options) { o.GetTimeout = d }
}

// WithSaveTimeout overrides the merged-winner save timeout.
func WithSaveTimeout(d time.Duration) Option {
	return func(o *Options) { o.SaveTimeout = d }
}

// WithDeleteTimeout overrides the tombstone bulk-update timeout.
func WithDeleteTimeout(d time.Duration) Option {
	return func(o *Options) { o.DeleteTimeout = d }
}

// WithDumpDir enables the forensic dump-to-disk hook.
func WithDumpDir(dir string) Option {
	return func(o *Options) { o.DumpDir = dir }
}
