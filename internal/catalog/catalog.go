package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clipper/internal/classify"
	"clipper/internal/history"

	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 4

// Item is one displayable history entry. Items are built once per listing
// and never changed afterwards.
type Item struct {
	Entry      history.Entry
	Data       []byte
	Class      classify.Result
	StagedPath string
}

func (i Item) Category() classify.Category { return i.Class.Category }

type Classifier interface {
	Classify(ctx context.Context, data []byte) classify.Result
}

type Stager interface {
	Stage(e history.Entry, data []byte, mimeType string) (string, error)
	Rebuild() error
}

// Listing is the outcome of one Load. Items keep store order; entries that
// could not be decoded are counted in Skipped and left out.
type Listing struct {
	Items    []Item
	Listed   int
	Skipped  int
	Elapsed  time.Duration
	StoreErr error
}

func (l Listing) Empty() bool { return len(l.Items) == 0 }

// Catalog runs the list, decode, classify and stage pipeline.
type Catalog struct {
	store      history.Store
	classifier Classifier
	stager     Stager
	workers    int
}

// New returns a Catalog. stager may be nil when nothing needs files on disk.
func New(store history.Store, classifier Classifier, stager Stager, workers int) *Catalog {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Catalog{store: store, classifier: classifier, stager: stager, workers: workers}
}

func (c *Catalog) Store() history.Store { return c.store }

// Load builds a fresh listing. An unreachable store yields an empty listing
// with StoreErr set; it is never fatal. Only cancellation of ctx returns an
// error. Calls must not overlap when a stager is configured.
func (c *Catalog) Load(ctx context.Context) (Listing, error) {
	start := time.Now()

	if c.stager != nil {
		if err := c.stager.Rebuild(); err != nil {
			slog.Warn("staging rebuild failed", "err", err)
		}
	}

	entries, err := c.store.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Listing{}, ctx.Err()
		}
		slog.Warn("history unavailable, showing empty list", "err", err)
		return Listing{StoreErr: err, Elapsed: time.Since(start)}, nil
	}

	decoded := make([]*Item, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			data, err := c.store.Decode(gctx, e)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				var decodeErr *history.DecodeError
				if errors.As(err, &decodeErr) {
					slog.Debug("skipping entry", "id", e.ID(), "err", err)
				} else {
					slog.Warn("skipping entry", "id", e.ID(), "err", err)
				}
				return nil
			}
			decoded[i] = &Item{
				Entry: e,
				Data:  data,
				Class: c.classifier.Classify(gctx, data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Listing{}, err
	}

	listing := Listing{Listed: len(entries), Items: make([]Item, 0, len(entries))}
	for _, it := range decoded {
		if it == nil {
			listing.Skipped++
			continue
		}
		if it.Category() == classify.Image && c.stager != nil {
			path, err := c.stager.Stage(it.Entry, it.Data, it.Class.MIME)
			if err != nil {
				slog.Warn("staging failed", "id", it.Entry.ID(), "err", err)
			}
			it.StagedPath = path
		}
		listing.Items = append(listing.Items, *it)
	}
	listing.Elapsed = time.Since(start)

	slog.Info("history loaded",
		"listed", listing.Listed,
		"shown", len(listing.Items),
		"skipped", listing.Skipped,
		"elapsed", listing.Elapsed.Round(time.Millisecond),
	)
	return listing, nil
}
