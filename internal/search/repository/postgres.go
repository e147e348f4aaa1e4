package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"forum_search_backend/internal/search/ports"
)

// The visibility clauses hide deleted content and restricted categories
// unless the reader is privileged. The privileged flag is always bound as $1.
const visibleTopicClause = `($1::boolean OR (NOT t.deleted AND NOT c.restricted))`
const visiblePostClause = `($1::boolean OR (NOT p.deleted AND NOT t.deleted AND NOT c.restricted))`

// PostgresStore reads the forum from PostgreSQL.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store over db, normally a *pgxpool.Pool.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) RecentTopics(ctx context.Context, limit int, readAs ports.Identity) ([]ports.Topic, error) {
	query := `
		SELECT t.tid, t.cid, t.uid, t.title, t.slug, COALESCE(t.main_pid, 0), t.deleted, t.created_at, t.post_count, t.view_count
		FROM topics t
		JOIN categories c ON c.cid = t.cid
		WHERE ` + visibleTopicClause + `
		ORDER BY t.created_at DESC, t.tid DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, readAs.Privileged, limit)
	if err != nil {
		return nil, wrap("postgres.RecentTopics", err)
	}
	defer rows.Close()

	topics := make([]ports.Topic, 0, limit)
	for rows.Next() {
		var t ports.Topic
		if err := rows.Scan(&t.TID, &t.CID, &t.UID, &t.Title, &t.Slug, &t.MainPID, &t.Deleted, &t.Timestamp,
			&t.Stats.PostCount, &t.Stats.ViewCount); err != nil {
			return nil, wrap("postgres.RecentTopics", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("postgres.RecentTopics", err)
	}
	return topics, nil
}

func (s *PostgresStore) PostTexts(ctx context.Context, pids []int64, readAs ports.Identity) ([]ports.Document, error) {
	if len(pids) == 0 {
		return []ports.Document{}, nil
	}

	query := `
		SELECT p.pid, p.content, COALESCE(p.source_content, '')
		FROM posts p
		JOIN topics t ON t.tid = p.tid
		JOIN categories c ON c.cid = t.cid
		WHERE p.pid = ANY($2) AND ` + visiblePostClause

	rows, err := s.db.Query(ctx, query, readAs.Privileged, pids)
	if err != nil {
		return nil, wrap("postgres.PostTexts", err)
	}
	defer rows.Close()

	docs := make([]ports.Document, 0, len(pids))
	for rows.Next() {
		var d ports.Document
		if err := rows.Scan(&d.PID, &d.Content, &d.SourceContent); err != nil {
			return nil, wrap("postgres.PostTexts", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("postgres.PostTexts", err)
	}
	return orderByPIDs(pids, docs, func(d ports.Document) int64 { return d.PID }), nil
}

func (s *PostgresStore) ReplyPIDs(ctx context.Context, tid int64, limit int, readAs ports.Identity) ([]int64, error) {
	if limit < 1 {
		return []int64{}, nil
	}

	query := `
		SELECT p.pid
		FROM posts p
		JOIN topics t ON t.tid = p.tid
		JOIN categories c ON c.cid = t.cid
		WHERE p.tid = $2
			AND p.pid IS DISTINCT FROM t.main_pid
			AND ` + visiblePostClause + `
		ORDER BY p.created_at DESC, p.pid DESC
		LIMIT $3`

	rows, err := s.db.Query(ctx, query, readAs.Privileged, tid, limit)
	if err != nil {
		return nil, wrap("postgres.ReplyPIDs", err)
	}
	defer rows.Close()

	pids := make([]int64, 0, limit)
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			return nil, wrap("postgres.ReplyPIDs", err)
		}
		pids = append(pids, pid)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("postgres.ReplyPIDs", err)
	}
	return pids, nil
}

func (s *PostgresStore) FirstGroupMember(ctx context.Context, group string) (int64, bool, error) {
	var uid int64
	err := s.db.QueryRow(ctx, `
		SELECT uid FROM group_members
		WHERE group_name = $1
		ORDER BY joined_at ASC, uid ASC
		LIMIT 1`, group).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrap("postgres.FirstGroupMember", err)
	}
	return uid, true, nil
}

func (s *PostgresStore) IsGroupMember(ctx context.Context, group string, uid int64) (bool, error) {
	var member bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_name = $1 AND uid = $2)`,
		group, uid).Scan(&member)
	if err != nil {
		return false, wrap("postgres.IsGroupMember", err)
	}
	return member, nil
}

func (s *PostgresStore) PostSummaries(ctx context.Context, pids []int64, readAs ports.Identity) ([]ports.PostSummary, error) {
	if len(pids) == 0 {
		return []ports.PostSummary{}, nil
	}

	query := `
		SELECT p.pid, p.tid, t.cid, t.title, t.slug, c.name,
			p.uid, COALESCE(u.username, ''), COALESCE(u.userslug, ''), COALESCE(u.picture, ''),
			p.content, COALESCE(p.source_content, ''), COALESCE(p.pid = t.main_pid, false), p.created_at
		FROM posts p
		JOIN topics t ON t.tid = p.tid
		JOIN categories c ON c.cid = t.cid
		LEFT JOIN users u ON u.uid = p.uid
		WHERE p.pid = ANY($2) AND ` + visiblePostClause

	rows, err := s.db.Query(ctx, query, readAs.Privileged, pids)
	if err != nil {
		return nil, wrap("postgres.PostSummaries", err)
	}
	defer rows.Close()

	summaries := make([]ports.PostSummary, 0, len(pids))
	for rows.Next() {
		var ps ports.PostSummary
		if err := rows.Scan(&ps.PID, &ps.TID, &ps.CID, &ps.TopicTitle, &ps.TopicSlug, &ps.CategoryName,
			&ps.Author.UID, &ps.Author.Username, &ps.Author.Userslug, &ps.Author.Picture,
			&ps.Content, &ps.SourceContent, &ps.IsMainPost, &ps.Timestamp); err != nil {
			return nil, wrap("postgres.PostSummaries", err)
		}
		summaries = append(summaries, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("postgres.PostSummaries", err)
	}
	return orderByPIDs(pids, summaries, func(ps ports.PostSummary) int64 { return ps.PID }), nil
}

func (s *PostgresStore) TopicCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM topics`).Scan(&count); err != nil {
		return 0, wrap("postgres.TopicCount", err)
	}
	return count, nil
}
