// Package scan implements the index-free fallback search: a bounded walk
// over recent topics, their main posts and a few recent replies, matched
// by case-insensitive substring.
package scan

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"forum_search_backend/internal/search/ports"
	"forum_search_backend/platform/apperr"
	"forum_search_backend/platform/logger"
	"forum_search_backend/platform/metrics"
)

const opSearch = "scan.Search"

// Searcher is the narrow contract the service depends on. Scanner is the
// brute-force implementation.
type Searcher interface {
	Search(ctx context.Context, q Query, readAs ports.Identity) (ResultSet, error)
}

// Options bounds the work done by a single scan.
type Options struct {
	MaxTopics          int
	MaxRepliesPerTopic int
	BatchSize          int
	ResultCap          int
	FetchConcurrency   int
}

// DefaultOptions returns the standard scan bounds.
func DefaultOptions() Options {
	return Options{
		MaxTopics:          1000,
		MaxRepliesPerTopic: 5,
		BatchSize:          200,
		ResultCap:          50,
		FetchConcurrency:   8,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxTopics < 1 {
		o.MaxTopics = d.MaxTopics
	}
	if o.MaxRepliesPerTopic < 0 {
		o.MaxRepliesPerTopic = d.MaxRepliesPerTopic
	}
	if o.BatchSize < 1 {
		o.BatchSize = d.BatchSize
	}
	if o.ResultCap < 1 {
		o.ResultCap = d.ResultCap
	}
	if o.FetchConcurrency < 1 {
		o.FetchConcurrency = d.FetchConcurrency
	}
	return o
}

// Stats describes the work one scan performed.
type Stats struct {
	// TopicsListed counts topics read from the store before the scope filter.
	TopicsListed       int
	TopicsScanned      int
	PostsScanned       int
	FailedReplyFetches int
	FailedBatches      int
	Took               time.Duration
}

// ResultSet is the outcome of a scan: unique pids in match order, capped,
// with the match count taken before the cap.
type ResultSet struct {
	PIDs       []int64
	MatchCount int
	// Partial is set when some reply slice or post batch could not be read.
	Partial bool
	Stats   Stats
}

// Scanner walks the document store for a query.
type Scanner struct {
	store ports.DocumentStore
	opts  Options
	log   *logger.Logger
}

// NewScanner creates a scanner over store.
func NewScanner(store ports.DocumentStore, opts Options, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.Nop()
	}
	return &Scanner{store: store, opts: opts.normalized(), log: log}
}

// Options returns the effective scan bounds.
func (s *Scanner) Options() Options {
	return s.opts
}

// Search runs one scan as readAs. Listing failures abort the scan; failures
// of a single reply slice or post batch are logged and leave the result
// Partial.
func (s *Scanner) Search(ctx context.Context, q Query, readAs ports.Identity) (ResultSet, error) {
	started := time.Now()
	log := s.log.WithContext(ctx)

	term := strings.ToLower(strings.TrimSpace(q.Term))
	if term == "" {
		return ResultSet{}, invalidQuery()
	}

	topics, err := s.store.RecentTopics(ctx, s.opts.MaxTopics, readAs)
	if err != nil {
		log.DatabaseError("RecentTopics", err)
		return ResultSet{}, apperr.Unavailable("failed to list recent topics", err).WithOp(opSearch)
	}

	var (
		titleMatches []int64
		mainPIDs     []int64
		replyTIDs    []int64
		stats        Stats
	)
	stats.TopicsListed = len(topics)
	for _, topic := range topics {
		if q.Scope.IsSet() && topic.CID != q.Scope.CategoryID {
			continue
		}
		stats.TopicsScanned++

		if strings.Contains(strings.ToLower(topic.Title), term) {
			if topic.MainPID > 0 {
				titleMatches = append(titleMatches, topic.MainPID)
			}
			continue
		}

		if topic.MainPID > 0 {
			mainPIDs = append(mainPIDs, topic.MainPID)
		}
		if s.opts.MaxRepliesPerTopic > 0 {
			replyTIDs = append(replyTIDs, topic.TID)
		}
	}

	bodyMatches, bodyScan, err := s.matchBatches(ctx, mainPIDs, term, readAs)
	if err != nil {
		return ResultSet{}, err
	}

	replyPIDs, failedReplies, err := s.collectReplies(ctx, replyTIDs, readAs)
	if err != nil {
		return ResultSet{}, err
	}
	replyPIDs = uniqueExcluding(replyPIDs, mainPIDs)

	replyMatches, replyScan, err := s.matchBatches(ctx, replyPIDs, term, readAs)
	if err != nil {
		return ResultSet{}, err
	}

	all := mergeUnique(titleMatches, bodyMatches, replyMatches)

	stats.PostsScanned = bodyScan.scanned + replyScan.scanned
	stats.FailedBatches = bodyScan.failed + replyScan.failed
	stats.FailedReplyFetches = failedReplies
	stats.Took = time.Since(started)

	result := ResultSet{
		PIDs:       truncate(all, s.opts.ResultCap),
		MatchCount: len(all),
		Partial:    stats.FailedBatches > 0 || stats.FailedReplyFetches > 0,
		Stats:      stats,
	}

	log.ScanCompleted(stats.TopicsScanned, stats.PostsScanned, result.MatchCount, result.Partial, stats.Took)
	metrics.RecordScan(stats.Took.Seconds(), stats.PostsScanned, result.MatchCount, result.Partial)

	return result, nil
}

type batchScan struct {
	scanned int
	failed  int
}

type batchSlot struct {
	matches []int64
	scanned int
	err     error
}

// matchBatches fetches pids in BatchSize chunks, at most FetchConcurrency
// at a time, and returns the matches in pid order.
func (s *Scanner) matchBatches(ctx context.Context, pids []int64, term string, readAs ports.Identity) ([]int64, batchScan, error) {
	var out batchScan
	if len(pids) == 0 {
		return nil, out, nil
	}

	batches := chunk(pids, s.opts.BatchSize)
	slots := make([]batchSlot, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.FetchConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			docs, err := s.store.PostTexts(gctx, batch, readAs)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slots[i].err = err
				return nil
			}
			slots[i].scanned = len(docs)
			slots[i].matches = FindMatches(docs, term)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, out, canceled(err)
	}

	log := s.log.WithContext(ctx)
	var matches []int64
	for i, slot := range slots {
		if slot.err != nil {
			out.failed++
			log.Warn("post_batch_failed", "batch", i, "size", len(batches[i]), "error", slot.err)
			metrics.RecordFetchFailure("post_batch")
			continue
		}
		out.scanned += slot.scanned
		matches = append(matches, slot.matches...)
	}
	return matches, out, nil
}

type replySlot struct {
	pids []int64
	err  error
}

// collectReplies reads the recent reply pids of each topic. A failing topic
// contributes nothing and does not stop its siblings.
func (s *Scanner) collectReplies(ctx context.Context, tids []int64, readAs ports.Identity) ([]int64, int, error) {
	if len(tids) == 0 {
		return nil, 0, nil
	}

	slots := make([]replySlot, len(tids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.FetchConcurrency)
	for i, tid := range tids {
		g.Go(func() error {
			pids, err := s.store.ReplyPIDs(gctx, tid, s.opts.MaxRepliesPerTopic, readAs)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slots[i].err = err
				return nil
			}
			slots[i].pids = pids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, canceled(err)
	}

	log := s.log.WithContext(ctx)
	failed := 0
	var pids []int64
	for i, slot := range slots {
		if slot.err != nil {
			failed++
			log.ReplyFetchFailed(tids[i], slot.err)
			metrics.RecordFetchFailure("reply_slice")
			continue
		}
		pids = append(pids, slot.pids...)
	}
	return pids, failed, nil
}

func canceled(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Unavailable("search timed out", err).WithOp(opSearch)
	}
	return apperr.Wrap(apperr.KindInternal, "search canceled", err).WithOp(opSearch)
}

func chunk(ids []int64, size int) [][]int64 {
	out := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

// uniqueExcluding removes duplicates from ids, keeping first-seen order,
// and drops anything in exclude.
func uniqueExcluding(ids, exclude []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids)+len(exclude))
	for _, id := range exclude {
		seen[id] = struct{}{}
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// mergeUnique concatenates the lists and removes duplicates, keeping the
// first occurrence.
func mergeUnique(lists ...[]int64) []int64 {
	return uniqueExcluding(concat(lists...), nil)
}

func concat(lists ...[]int64) []int64 {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]int64, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func truncate(ids []int64, limit int) []int64 {
	if len(ids) <= limit {
		return ids
	}
	return ids[:limit]
}
