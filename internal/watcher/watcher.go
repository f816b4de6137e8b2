// Package watcher polls the release feeds of tracked products and announces
// newly published versions to Telegram chats.
package watcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/vms-release-bot/internal/compose"
	"github.com/yourorg/vms-release-bot/internal/db"
	"github.com/yourorg/vms-release-bot/internal/metrics"
	"github.com/yourorg/vms-release-bot/internal/releases"
	"github.com/yourorg/vms-release-bot/internal/telegram"
)

const (
	maxConcurrentFetches = 4
	lastCheckSetting     = "last_check"
)

// Store is the persistence the watcher needs, satisfied by *db.Store
type Store interface {
	ListProducts(ctx context.Context) ([]db.Product, error)
	IsSeeded(ctx context.Context, product string) (bool, error)
	MarkSeeded(ctx context.Context, product string, at time.Time) error
	IsAnnounced(ctx context.Context, product, version string) (bool, error)
	MarkAnnounced(ctx context.Context, r db.AnnouncedRelease) error
	ListChats(ctx context.Context) ([]db.Chat, error)
	RemoveChat(ctx context.Context, chatID int64) error
	SetSetting(ctx context.Context, key, value string) error
}

// Feed fetches one product's release document
type Feed interface {
	GetDocument(ctx context.Context, product string) (*releases.Document, error)
}

// Notifier delivers an HTML message to a chat
type Notifier interface {
	SendHTML(ctx context.Context, chatID int64, html string) error
}

// Options tune which releases get announced
type Options struct {
	// PublicationTypes limits announcements, empty announces every type
	PublicationTypes []string
	TimeZone         string
}

// Report summarizes one check
type Report struct {
	Products  int
	Failed    int
	Seeded    int
	Announced int
}

// Watcher runs release checks
type Watcher struct {
	logger   *slog.Logger
	store    Store
	feed     Feed
	notifier Notifier
	metrics  *metrics.Metrics
	opts     Options
}

func New(logger *slog.Logger, store Store, feed Feed, notifier Notifier, m *metrics.Metrics, opts Options) *Watcher {
	return &Watcher{
		logger:   logger,
		store:    store,
		feed:     feed,
		notifier: notifier,
		metrics:  m,
		opts:     opts,
	}
}

type fetchResult struct {
	product string
	doc     *releases.Document
	err     error
}

// Job adapts Check to the scheduler
func (w *Watcher) Job(ctx context.Context) {
	w.logger.Info("Starting release check job")

	report, err := w.Check(ctx)
	if err != nil {
		w.logger.Error("Release check failed", "error", err)
		return
	}

	w.logger.Info("Release check job completed",
		"products", report.Products,
		"failed", report.Failed,
		"seeded", report.Seeded,
		"announced", report.Announced)
}

// Check fetches every tracked product and announces releases not sent before.
// A product whose feed cannot be fetched or stored is logged, counted as
// failed and skipped.
func (w *Watcher) Check(ctx context.Context) (Report, error) {
	var report Report

	products, err := w.store.ListProducts(ctx)
	if err != nil {
		return report, errors.Wrap(err, "failed to list products")
	}
	report.Products = len(products)
	if len(products) == 0 {
		w.logger.Info("No products to check")
		return report, nil
	}

	results := w.fetchAll(ctx, products)

	for _, res := range results {
		logger := w.logger.With("product", res.product)
		if res.err != nil {
			report.Failed++
			logger.Error("Failed to fetch releases", "error", res.err, "result", metrics.Result(res.err))
			continue
		}

		seeded, announced, err := w.processProduct(ctx, logger, res.product, res.doc)
		report.Seeded += seeded
		report.Announced += announced
		if err != nil {
			report.Failed++
			logger.Error("Failed to process releases", "error", err)
		}
	}

	now := time.Now()
	if err := w.store.SetSetting(ctx, lastCheckSetting, now.UTC().Format(time.RFC3339)); err != nil {
		w.logger.Warn("Failed to store last check time", "error", err)
	}
	w.metrics.ObserveCheck(now)

	return report, nil
}

// fetchAll fetches feeds concurrently, results keep the product order
func (w *Watcher) fetchAll(ctx context.Context, products []db.Product) []fetchResult {
	results := make([]fetchResult, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			doc, err := w.feed.GetDocument(gctx, p.Name)
			w.metrics.ObserveFetch(p.Name, time.Since(start), err)
			results[i] = fetchResult{product: p.Name, doc: doc, err: err}
			return nil
		})
	}
	g.Wait()

	return results
}

// processProduct announces unseen releases. On the first successful check
// of a product its current releases are recorded without sending anything.
func (w *Watcher) processProduct(ctx context.Context, logger *slog.Logger, product string, doc *releases.Document) (seeded, announced int, err error) {
	done, err := w.store.IsSeeded(ctx, product)
	if err != nil {
		return 0, 0, err
	}
	firstCheck := !done

	released := releases.Released(doc.Releases)
	logger.Debug("Processed releases", "total", len(doc.Releases), "released", len(released))

	for _, r := range released {
		if !w.wantsPublicationType(r.PublicationType) {
			continue
		}

		done, err := w.store.IsAnnounced(ctx, product, r.Version)
		if err != nil {
			return seeded, announced, err
		}
		if done {
			continue
		}

		if firstCheck {
			seeded++
		} else {
			w.announce(ctx, logger, product, r, doc.PackageURLs)
			announced++
		}

		if err := w.store.MarkAnnounced(ctx, db.AnnouncedRelease{
			Product:         product,
			Version:         r.Version,
			PublicationType: r.PublicationType,
			ReleaseDate:     r.ReleaseDate,
		}); err != nil {
			return seeded, announced, err
		}
	}

	if firstCheck {
		if err := w.store.MarkSeeded(ctx, product, time.Now()); err != nil {
			return seeded, announced, err
		}
		logger.Info("First check, recorded existing releases without announcing", "count", seeded)
	}
	return seeded, announced, nil
}

func (w *Watcher) announce(ctx context.Context, logger *slog.Logger, product string, r releases.Release, packageURLs []string) {
	logger = logger.With("version", r.Version, "publication_type", r.PublicationType)
	logger.Info("Announcing new release")

	msg := compose.BuildHTML(compose.Input{Release: r, PackageURLs: packageURLs}, compose.Options{TimeZone: w.opts.TimeZone})

	chats, err := w.store.ListChats(ctx)
	if err != nil {
		logger.Error("Failed to get chats", "error", err)
		return
	}
	if len(chats) == 0 {
		logger.Warn("No chats configured for notifications")
	}

	for _, chat := range chats {
		chatLogger := logger.With("chat_id", chat.ID)

		if err := w.notifier.SendHTML(ctx, chat.ID, msg); err != nil {
			chatLogger.Error("Failed to send message", "error", err)

			if telegram.IsPermanentError(err) {
				chatLogger.Warn("Removing chat due to permanent error")
				if err := w.store.RemoveChat(ctx, chat.ID); err != nil {
					chatLogger.Error("Failed to remove invalid chat", "error", err)
				}
			}
			continue
		}
		chatLogger.Info("Message sent successfully")
	}

	w.metrics.ObserveAnnouncement(product, r.PublicationType)
}

func (w *Watcher) wantsPublicationType(publicationType string) bool {
	if len(w.opts.PublicationTypes) == 0 {
		return true
	}
	for _, t := range w.opts.PublicationTypes {
		if strings.EqualFold(t, publicationType) {
			return true
		}
	}
	return false
}
