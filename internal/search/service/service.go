package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"forum_search_backend/internal/events"
	"forum_search_backend/internal/search/ports"
	"forum_search_backend/internal/search/scan"
	"forum_search_backend/internal/search/transport"
	"forum_search_backend/platform/apperr"
	"forum_search_backend/platform/config"
	"forum_search_backend/platform/logger"
	"forum_search_backend/platform/sanitize"
)

const (
	sampleTitleCount = 10
	infoNote         = "Use a term from sampleTitles to test /api/v1/search?term=..."
	emptyForumNote   = "No topics found to scan"

	// fallbackPrivilegedUID is read as when the privileged group has no members.
	fallbackPrivilegedUID int64 = 1
)

// Reader is everything the service reads from the store besides the scan.
type Reader interface {
	ports.ReaderResolver
	ports.SummaryReader
	RecentTopics(ctx context.Context, limit int, readAs ports.Identity) ([]ports.Topic, error)
}

// Options configures how requests are read and rendered.
type Options struct {
	ReadPolicy      string
	PrivilegedGroup string
	SnippetLeft     int
	SnippetRight    int
}

// OptionsFromConfig reads the service options from the search config.
func OptionsFromConfig(cfg config.SearchConfig) Options {
	return Options{
		ReadPolicy:      cfg.GetSearchReadPolicy(),
		PrivilegedGroup: cfg.GetSearchPrivilegedGroup(),
		SnippetLeft:     cfg.GetSearchSnippetLeft(),
		SnippetRight:    cfg.GetSearchSnippetRight(),
	}
}

type Service struct {
	searcher scan.Searcher
	reader   Reader
	bus      events.Bus
	renderer *sanitize.Renderer
	opts     Options
	log      *logger.Logger
}

func New(searcher scan.Searcher, reader Reader, bus events.Bus, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if opts.ReadPolicy == "" {
		opts.ReadPolicy = config.ReadPolicyCaller
	}
	return &Service{
		searcher: searcher,
		reader:   reader,
		bus:      bus,
		renderer: sanitize.NewRenderer(),
		opts:     opts,
		log:      log,
	}
}

// Search runs a fallback scan for req on behalf of caller and renders the
// capped results.
func (s *Service) Search(ctx context.Context, caller ports.Identity, req transport.SearchRequest) (*transport.SearchResponse, error) {
	query, err := scan.NewQuery(req.Term, req.In)
	if err != nil {
		return nil, err
	}

	readAs, err := s.resolveReader(ctx, caller)
	if err != nil {
		return nil, err
	}

	result, err := s.searcher.Search(ctx, query, readAs)
	if err != nil {
		return nil, err
	}

	summaries, err := s.reader.PostSummaries(ctx, result.PIDs, readAs)
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("PostSummaries", err)
		return nil, apperr.Unavailable("failed to load search results", err).WithOp("search.Search")
	}

	results := make([]transport.SearchResult, 0, len(summaries))
	for _, summary := range summaries {
		results = append(results, s.format(summary, query.Term))
	}

	resp := &transport.SearchResponse{
		Results:     results,
		MatchCount:  result.MatchCount,
		SearchedFor: req.Term,
		Partial:     result.Partial,
	}
	if result.Stats.TopicsListed == 0 {
		resp.Note = emptyForumNote
	}

	s.publishCompleted(ctx, caller, readAs, query, result, len(results))
	return resp, nil
}

// Info returns the topic count and a few recent titles to pick terms from.
func (s *Service) Info(ctx context.Context, caller ports.Identity) (*transport.InfoResponse, error) {
	readAs, err := s.resolveReader(ctx, caller)
	if err != nil {
		return nil, err
	}

	total, err := s.reader.TopicCount(ctx)
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("TopicCount", err)
		return nil, apperr.Unavailable("failed to count topics", err).WithOp("search.Info")
	}

	topics, err := s.reader.RecentTopics(ctx, sampleTitleCount, readAs)
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("RecentTopics", err)
		return nil, apperr.Unavailable("failed to list recent topics", err).WithOp("search.Info")
	}

	samples := make([]transport.SampleTitle, 0, len(topics))
	for _, t := range topics {
		samples = append(samples, transport.SampleTitle{TID: t.TID, Title: t.Title, CID: t.CID})
	}

	return &transport.InfoResponse{TotalTopics: total, SampleTitles: samples, Note: infoNote}, nil
}

// resolveReader picks the identity a request reads as. Under the elevated
// policy every request reads as the first member of the privileged group.
// Under the caller policy a signed-in caller is privileged when the token
// says so or when they belong to the privileged group.
func (s *Service) resolveReader(ctx context.Context, caller ports.Identity) (ports.Identity, error) {
	if s.opts.ReadPolicy == config.ReadPolicyElevated {
		uid, ok, err := s.reader.FirstGroupMember(ctx, s.opts.PrivilegedGroup)
		if err != nil {
			s.log.WithContext(ctx).DatabaseError("FirstGroupMember", err)
			return ports.Identity{}, apperr.Unavailable("failed to resolve reader", err).WithOp("search.resolveReader")
		}
		if !ok {
			uid = fallbackPrivilegedUID
		}
		return ports.Identity{UID: uid, Privileged: true}, nil
	}

	if caller.IsGuest() || caller.Privileged || s.opts.PrivilegedGroup == "" {
		return caller, nil
	}
	member, err := s.reader.IsGroupMember(ctx, s.opts.PrivilegedGroup, caller.UID)
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("IsGroupMember", err)
		return ports.Identity{}, apperr.Unavailable("failed to resolve reader", err).WithOp("search.resolveReader")
	}
	caller.Privileged = member
	return caller, nil
}

func (s *Service) format(p ports.PostSummary, term string) transport.SearchResult {
	body := p.Content
	if body == "" {
		body = p.SourceContent
	}
	rendered := s.renderer.Render(body)

	return transport.SearchResult{
		PID:      p.PID,
		TID:      p.TID,
		CID:      p.CID,
		Title:    p.TopicTitle,
		Slug:     p.TopicSlug,
		Category: p.CategoryName,
		User: transport.Author{
			UID:      p.Author.UID,
			Username: p.Author.Username,
			Userslug: p.Author.Userslug,
			Picture:  p.Author.Picture,
		},
		IsMainPost:   p.IsMainPost,
		Content:      rendered,
		Snippet:      s.snippet(term, rendered, ports.Document{Content: p.Content, SourceContent: p.SourceContent}.Text(), p.TopicTitle),
		Timestamp:    p.Timestamp.UnixMilli(),
		TimestampISO: p.Timestamp.UTC(),
	}
}

// snippet takes the excerpt from the first candidate text containing term.
func (s *Service) snippet(term string, candidates ...string) *string {
	terms := []string{term}
	for _, text := range candidates {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if snip, ok := scan.BuildSnippet(text, terms, s.opts.SnippetLeft, s.opts.SnippetRight); ok {
			return &snip
		}
	}
	return nil
}

func (s *Service) publishCompleted(ctx context.Context, caller, readAs ports.Identity, q scan.Query, result scan.ResultSet, returned int) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.SearchCompleted{
		BaseEvent:          events.NewBaseEvent(),
		SearchID:           uuid.New(),
		Term:               q.Term,
		CategoryID:         q.Scope.CategoryID,
		CallerUID:          caller.UID,
		ReadAsUID:          readAs.UID,
		MatchCount:         result.MatchCount,
		Returned:           returned,
		TopicsScanned:      result.Stats.TopicsScanned,
		PostsScanned:       result.Stats.PostsScanned,
		FailedReplyFetches: result.Stats.FailedReplyFetches,
		FailedBatches:      result.Stats.FailedBatches,
		Partial:            result.Partial,
		TookMs:             result.Stats.Took.Milliseconds(),
	})
}

// PartialScanLogger returns an event handler that warns about scans that
// could not read every post.
func PartialScanLogger(log *logger.Logger) events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.SearchCompleted)
		if !ok || !e.Partial {
			return nil
		}
		log.WithContext(ctx).Warn("partial_search",
			"search_id", e.SearchID.String(),
			"term", e.Term,
			"failed_reply_fetches", e.FailedReplyFetches,
			"failed_batches", e.FailedBatches,
			"took", time.Duration(e.TookMs)*time.Millisecond,
		)
		return nil
	})
}
