package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Fixture is a small forum loaded by the seed command.
type Fixture struct {
	Categories []FixtureCategory  `yaml:"categories"`
	Users      []FixtureUser      `yaml:"users"`
	Groups     map[string][]int64 `yaml:"groups"`
	Topics     []FixtureTopic     `yaml:"topics"`
}

type FixtureCategory struct {
	CID        int64  `yaml:"cid"`
	Name       string `yaml:"name"`
	Slug       string `yaml:"slug"`
	Restricted bool   `yaml:"restricted"`
}

type FixtureUser struct {
	UID      int64  `yaml:"uid"`
	Username string `yaml:"username"`
	Userslug string `yaml:"userslug"`
	Picture  string `yaml:"picture"`
}

// FixtureTopic holds its posts in order; the first one is the main post.
type FixtureTopic struct {
	TID       int64         `yaml:"tid"`
	CID       int64         `yaml:"cid"`
	UID       int64         `yaml:"uid"`
	Title     string        `yaml:"title"`
	Slug      string        `yaml:"slug"`
	Deleted   bool          `yaml:"deleted"`
	Views     int64         `yaml:"views"`
	Timestamp time.Time     `yaml:"timestamp"`
	Posts     []FixturePost `yaml:"posts"`
}

type FixturePost struct {
	PID           int64     `yaml:"pid"`
	UID           int64     `yaml:"uid"`
	Content       string    `yaml:"content"`
	SourceContent string    `yaml:"sourceContent"`
	Deleted       bool      `yaml:"deleted"`
	Timestamp     time.Time `yaml:"timestamp"`
}

var ErrInvalidFixture = errors.New("invalid fixture")

// ParseFixture decodes a YAML fixture and checks its references.
func ParseFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	cids := map[int64]bool{}
	for _, c := range f.Categories {
		cids[c.CID] = true
	}
	pids := map[int64]bool{}
	for _, t := range f.Topics {
		if !cids[t.CID] {
			return fmt.Errorf("%w: topic %d references unknown category %d", ErrInvalidFixture, t.TID, t.CID)
		}
		if len(t.Posts) == 0 {
			return fmt.Errorf("%w: topic %d has no main post", ErrInvalidFixture, t.TID)
		}
		for _, p := range t.Posts {
			if pids[p.PID] {
				return fmt.Errorf("%w: duplicate post %d", ErrInvalidFixture, p.PID)
			}
			pids[p.PID] = true
		}
	}
	return nil
}

func (t FixtureTopic) mainPID() int64 {
	return t.Posts[0].PID
}

func (p FixturePost) createdAt(topic FixtureTopic) time.Time {
	if p.Timestamp.IsZero() {
		return topic.Timestamp
	}
	return p.Timestamp
}

// Seed writes the fixture in one transaction, replacing rows with the same ids.
func (s *PostgresStore) Seed(ctx context.Context, f *Fixture) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return wrap("postgres.Seed", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := seedPostgres(ctx, tx, f); err != nil {
		return wrap("postgres.Seed", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrap("postgres.Seed", err)
	}
	return nil
}

func seedPostgres(ctx context.Context, tx pgx.Tx, f *Fixture) error {
	for _, c := range f.Categories {
		if _, err := tx.Exec(ctx, `
			INSERT INTO categories (cid, name, slug, restricted) VALUES ($1, $2, $3, $4)
			ON CONFLICT (cid) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug, restricted = EXCLUDED.restricted`,
			c.CID, c.Name, c.Slug, c.Restricted); err != nil {
			return err
		}
	}
	for _, u := range f.Users {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (uid, username, userslug, picture) VALUES ($1, $2, $3, $4)
			ON CONFLICT (uid) DO UPDATE SET username = EXCLUDED.username, userslug = EXCLUDED.userslug, picture = EXCLUDED.picture`,
			u.UID, u.Username, u.Userslug, u.Picture); err != nil {
			return err
		}
	}
	for group, uids := range f.Groups {
		for i, uid := range uids {
			if _, err := tx.Exec(ctx, `
				INSERT INTO group_members (group_name, uid, joined_at) VALUES ($1, $2, $3)
				ON CONFLICT (group_name, uid) DO NOTHING`,
				group, uid, time.Unix(int64(i), 0).UTC()); err != nil {
				return err
			}
		}
	}
	for _, t := range f.Topics {
		if _, err := tx.Exec(ctx, `
			INSERT INTO topics (tid, cid, uid, title, slug, main_pid, deleted, created_at, post_count, view_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (tid) DO UPDATE SET cid = EXCLUDED.cid, uid = EXCLUDED.uid, title = EXCLUDED.title,
				slug = EXCLUDED.slug, main_pid = EXCLUDED.main_pid, deleted = EXCLUDED.deleted,
				created_at = EXCLUDED.created_at, post_count = EXCLUDED.post_count, view_count = EXCLUDED.view_count`,
			t.TID, t.CID, t.UID, t.Title, t.Slug, t.mainPID(), t.Deleted, t.Timestamp, len(t.Posts), t.Views); err != nil {
			return err
		}
		for _, p := range t.Posts {
			if _, err := tx.Exec(ctx, `
				INSERT INTO posts (pid, tid, uid, content, source_content, deleted, created_at)
				VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
				ON CONFLICT (pid) DO UPDATE SET tid = EXCLUDED.tid, uid = EXCLUDED.uid, content = EXCLUDED.content,
					source_content = EXCLUDED.source_content, deleted = EXCLUDED.deleted, created_at = EXCLUDED.created_at`,
				p.PID, t.TID, p.UID, p.Content, p.SourceContent, p.Deleted, p.createdAt(t)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Seed writes the fixture using the NodeBB key layout in one MULTI block.
func (s *RedisStore) Seed(ctx context.Context, f *Fixture) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, c := range f.Categories {
			pipe.HSet(ctx, categoryKey(c.CID), map[string]any{
				"cid":        c.CID,
				"name":       c.Name,
				"slug":       c.Slug,
				"restricted": formatBool(c.Restricted),
			})
		}
		for _, u := range f.Users {
			pipe.HSet(ctx, userKey(u.UID), map[string]any{
				"uid":      u.UID,
				"username": u.Username,
				"userslug": u.Userslug,
				"picture":  u.Picture,
			})
		}
		for group, uids := range f.Groups {
			for i, uid := range uids {
				pipe.ZAdd(ctx, groupMembersKey(group), redis.Z{Score: float64(i), Member: strconv.FormatInt(uid, 10)})
			}
		}
		for _, t := range f.Topics {
			pipe.HSet(ctx, topicKey(t.TID), map[string]any{
				"tid":       t.TID,
				"cid":       t.CID,
				"uid":       t.UID,
				"title":     t.Title,
				"slug":      t.Slug,
				"mainPid":   t.mainPID(),
				"deleted":   formatBool(t.Deleted),
				"timestamp": t.Timestamp.UnixMilli(),
				"postcount": len(t.Posts),
				"viewcount": t.Views,
			})
			pipe.ZAdd(ctx, keyTopicsByTime, redis.Z{Score: float64(t.Timestamp.UnixMilli()), Member: strconv.FormatInt(t.TID, 10)})
			for i, p := range t.Posts {
				fields := map[string]any{
					"pid":       p.PID,
					"tid":       t.TID,
					"uid":       p.UID,
					"content":   p.Content,
					"deleted":   formatBool(p.Deleted),
					"timestamp": p.createdAt(t).UnixMilli(),
				}
				if p.SourceContent != "" {
					fields["sourceContent"] = p.SourceContent
				}
				pipe.HSet(ctx, postKey(p.PID), fields)
				if i > 0 {
					pipe.ZAdd(ctx, topicPostsKey(t.TID), redis.Z{Score: float64(p.createdAt(t).UnixMilli()), Member: strconv.FormatInt(p.PID, 10)})
				}
			}
		}
		pipe.HSet(ctx, keyGlobal, fieldTopicCount, len(f.Topics))
		return nil
	})
	if err != nil {
		return wrap("redis.Seed", err)
	}
	return nil
}
