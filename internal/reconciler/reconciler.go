// Package reconciler drives the per-system booking state machine
// (New → Pending → Booked/Error) from XML response files dropped by the
// downstream systems. Each reconciler runs one startup scan plus one
// filesystem watch over its response folder; both funnel into the same
// per-file processing routine.
package reconciler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fxops/confirmhub/internal/trades"
	"github.com/fxops/confirmhub/internal/types"
)

// BookingResponse is the decoded outcome of one response-file set.
type BookingResponse struct {
	TradeID       string
	Success       bool
	SystemTradeID string
	ErrorText     string
	Files         []string // every file of the set, to be archived together
}

// ResponseParser decodes one downstream system's response files.
type ResponseParser interface {
	System() types.SystemCode
	// Matches reports whether a filename belongs to this system's responses.
	Matches(filename string) bool
	// ExpectedPrefixes returns the filename prefixes a response for the trade
	// may arrive under, covering the acceptable product-type spellings.
	ExpectedPrefixes(trade *types.Trade) []string
	// Parse decodes the full file set containing filename.
	Parse(dir, filename string) (*BookingResponse, error)
}

// Config locates the response and archive folders and tunes the timing.
type Config struct {
	ResponseDir string
	ArchiveDir  string
	// SettleDelay is the fixed wait between a filesystem notification and the
	// read, so a partially-written file is not picked up.
	SettleDelay time.Duration
	// GuardTTL bounds the in-memory dedup guard entries.
	GuardTTL time.Duration
}

// Reconciler matches arriving response files to pending trades and updates
// their link status. The dedup guard is advisory and process-local; entries
// are dropped on processing failure so transient errors get retried on the
// next event.
type Reconciler struct {
	db     *trades.Database
	parser ResponseParser
	cfg    Config
	guard  *cache.Cache
	logger zerolog.Logger
}

func New(db *trades.Database, parser ResponseParser, cfg Config) *Reconciler {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 1500 * time.Millisecond
	}
	if cfg.GuardTTL == 0 {
		cfg.GuardTTL = 5 * time.Minute
	}
	return &Reconciler{
		db:     db,
		parser: parser,
		cfg:    cfg,
		guard:  cache.New(cfg.GuardTTL, cfg.GuardTTL),
		logger: log.With().Str("reconciler", string(parser.System())).Logger(),
	}
}

// Start runs the startup reconciliation pass and then watches the response
// folder until the context is cancelled. Watcher errors are logged, never
// fatal: the worst case is a trade stuck in Pending awaiting investigation.
func (r *Reconciler) Start(ctx context.Context) error {
	if err := r.StartupScan(); err != nil {
		r.logger.Error().Err(err).Msg("startup reconciliation failed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.cfg.ResponseDir); err != nil {
		return fmt.Errorf("watching %s: %w", r.cfg.ResponseDir, err)
	}
	r.logger.Info().Str("dir", r.cfg.ResponseDir).Msg("watching response folder")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("shutting down reconciler")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if !r.parser.Matches(name) {
				continue
			}
			if err := r.guard.Add(name, struct{}{}, cache.DefaultExpiration); err != nil {
				continue // already in flight or recently processed
			}
			go r.processAfterSettle(name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// processAfterSettle waits out the settle delay before reading the file. The
// wait is a fixed timer, not a cancellable operation.
func (r *Reconciler) processAfterSettle(filename string) {
	time.Sleep(r.cfg.SettleDelay)
	if err := r.ProcessResponseFile(filename); err != nil {
		r.logger.Error().Err(err).Str("file", filename).Msg("response file processing failed, will retry on next event")
		r.guard.Delete(filename)
	}
}

// StartupScan matches every Pending link against the response folder and
// processes whatever already arrived. Pending trades without a response are
// logged as still waiting; that is not an error.
func (r *Reconciler) StartupScan() error {
	links, err := r.db.GetLinksByStatus(r.parser.System(), types.StatusPending)
	if err != nil {
		return err
	}
	r.logger.Info().Int("pending", len(links)).Msg("startup reconciliation")

	entries, err := os.ReadDir(r.cfg.ResponseDir)
	if err != nil {
		return fmt.Errorf("listing response folder: %w", err)
	}

	for _, link := range links {
		trade, err := r.db.GetTrade(link.TradeID)
		if err != nil {
			return err
		}
		if trade == nil {
			r.logger.Warn().Str("trade_id", link.TradeID).Msg("pending link without trade, skipping")
			continue
		}

		matched := false
		for _, entry := range entries {
			name := entry.Name()
			if !r.parser.Matches(name) || !hasAnyPrefix(name, r.parser.ExpectedPrefixes(trade)) {
				continue
			}
			matched = true
			if r.guard.Add(name, struct{}{}, cache.DefaultExpiration) != nil {
				continue
			}
			if err := r.ProcessResponseFile(name); err != nil {
				r.logger.Error().Err(err).Str("file", name).Msg("startup processing failed")
				r.guard.Delete(name)
			}
		}
		if !matched {
			r.logger.Info().Str("trade_id", link.TradeID).Msg("no response yet, still waiting")
		}
	}
	return nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(name) >= len(p) && name[:len(p)] == p {
			return true
		}
	}
	return false
}

// ProcessResponseFile decodes one response-file set and applies it to the
// trade's link. Processing is idempotent: a link already in a terminal state
// is left untouched. A response for an unknown trade is archived without
// failing, so the file does not loop forever.
func (r *Reconciler) ProcessResponseFile(filename string) (err error) {
	defer func() {
		// outermost per-file boundary: a panic here must not kill the watcher
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic processing %s: %v", filename, rec)
		}
	}()

	logger := r.logger.With().Str("file", filename).Logger()

	resp, err := r.parser.Parse(r.cfg.ResponseDir, filename)
	if err != nil {
		return fmt.Errorf("parsing response file: %w", err)
	}

	trade, err := r.db.GetTrade(resp.TradeID)
	if err != nil {
		return err
	}
	if trade == nil {
		logger.Warn().Str("trade_id", resp.TradeID).Msg("response references unknown trade, archiving without update")
		return r.archive(resp.Files)
	}

	link, err := r.db.GetLink(resp.TradeID, r.parser.System())
	if err != nil {
		return err
	}
	if link == nil {
		logger.Warn().Str("trade_id", resp.TradeID).Msg("no link for trade and system, archiving without update")
		return r.archive(resp.Files)
	}
	if link.Status.Terminal() {
		// a rejection whose status file arrived alone left the link in
		// Error with no reasons; a late detail file fills them in
		if link.Status == types.StatusError && !resp.Success && resp.ErrorText != "" && link.LastError == "" {
			link.LastError = resp.ErrorText
			if err := r.db.UpdateLinkStatus(link, types.StatusError); err != nil {
				return err
			}
			if err := r.db.CreateEvent(r.bookingEvent(resp)); err != nil {
				return err
			}
			logger.Info().Str("trade_id", resp.TradeID).Msg("merged late rejection detail")
			return r.archive(resp.Files)
		}
		logger.Debug().Str("status", string(link.Status)).Msg("link already terminal, skipping")
		return r.archive(resp.Files)
	}

	if resp.Success {
		link.SystemTradeID = resp.SystemTradeID
		if err := r.db.UpdateLinkStatus(link, types.StatusBooked); err != nil {
			return err
		}
	} else {
		link.LastError = resp.ErrorText
		if err := r.db.UpdateLinkStatus(link, types.StatusError); err != nil {
			return err
		}
	}
	if err := r.db.CreateEvent(r.bookingEvent(resp)); err != nil {
		return err
	}

	logger.Info().
		Str("trade_id", resp.TradeID).
		Bool("success", resp.Success).
		Str("system_trade_id", resp.SystemTradeID).
		Msg("response applied")
	return r.archive(resp.Files)
}

func (r *Reconciler) bookingEvent(resp *BookingResponse) *types.TradeWorkflowEvent {
	eventType := types.EventBookingConfirmed
	details := fmt.Sprintf("booked as %s", resp.SystemTradeID)
	if !resp.Success {
		eventType = types.EventBookingRejected
		details = resp.ErrorText
	}
	return &types.TradeWorkflowEvent{
		EventID:    uuid.New().String(),
		TradeID:    resp.TradeID,
		EventType:  eventType,
		SystemCode: r.parser.System(),
		Details:    details,
		Initiator:  "reconciler",
		CreatedAt:  time.Now().UTC(),
	}
}

// archive moves processed files out of the watched folder, appending a
// timestamp suffix when the archive name already exists.
func (r *Reconciler) archive(files []string) error {
	for _, name := range files {
		src := filepath.Join(r.cfg.ResponseDir, name)
		dst := filepath.Join(r.cfg.ArchiveDir, name)
		if _, err := os.Stat(dst); err == nil {
			ext := filepath.Ext(name)
			stem := name[:len(name)-len(ext)]
			dst = filepath.Join(r.cfg.ArchiveDir,
				fmt.Sprintf("%s_%s%s", stem, time.Now().UTC().Format("20060102T150405"), ext))
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
	}
	return nil
}
