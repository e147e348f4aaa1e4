package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

var topicColumns = []string{"tid", "cid", "uid", "title", "slug", "main_pid", "deleted", "created_at", "post_count", "view_count"}

func TestPostgresStoreRecentTopics(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM topics t")).
		WithArgs(false, 10).
		WillReturnRows(pgxmock.NewRows(topicColumns).
			AddRow(int64(4), int64(1), int64(2), "Newest", "4/newest", int64(40), false, created, int64(3), int64(12)).
			AddRow(int64(1), int64(1), int64(2), "Welcome", "1/welcome", int64(10), false, created.Add(-time.Hour), int64(1), int64(0)))

	topics, err := store.RecentTopics(context.Background(), 10, guest)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, int64(4), topics[0].TID)
	assert.Equal(t, int64(40), topics[0].MainPID)
	assert.Equal(t, int64(12), topics[0].Stats.ViewCount)
	assert.Equal(t, created, topics[0].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRecentTopicsError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM topics t")).
		WithArgs(true, 5).
		WillReturnError(errors.New("connection refused"))

	_, err := store.RecentTopics(context.Background(), 5, admin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.RecentTopics")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorePostTextsKeepsRequestOrder(t *testing.T) {
	store, mock := newMockStore(t)
	pids := []int64{30, 10, 20}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.pid = ANY($2)")).
		WithArgs(false, pids).
		WillReturnRows(pgxmock.NewRows([]string{"pid", "content", "source_content"}).
			AddRow(int64(10), "<p>ten</p>", "").
			AddRow(int64(30), "<p>thirty</p>", "thirty source"))

	docs, err := store.PostTexts(context.Background(), pids, guest)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(30), docs[0].PID)
	assert.Equal(t, "thirty source", docs[0].Text())
	assert.Equal(t, int64(10), docs[1].PID)
	assert.Equal(t, "<p>ten</p>", docs[1].Text())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorePostTextsEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	docs, err := store.PostTexts(context.Background(), nil, guest)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReplyPIDs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("p.pid IS DISTINCT FROM t.main_pid")).
		WithArgs(false, int64(4), 5).
		WillReturnRows(pgxmock.NewRows([]string{"pid"}).AddRow(int64(42)).AddRow(int64(41)))

	pids, err := store.ReplyPIDs(context.Background(), 4, 5, guest)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 41}, pids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreFirstGroupMember(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM group_members")).
		WithArgs("administrators").
		WillReturnRows(pgxmock.NewRows([]string{"uid"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM group_members")).
		WithArgs("moderators").
		WillReturnRows(pgxmock.NewRows([]string{"uid"}))

	uid, ok, err := store.FirstGroupMember(context.Background(), "administrators")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), uid)

	_, ok, err = store.FirstGroupMember(context.Background(), "moderators")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreIsGroupMember(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("administrators", int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	member, err := store.IsGroupMember(context.Background(), "administrators", 2)
	require.NoError(t, err)
	assert.False(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorePostSummaries(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	pids := []int64{41, 10}

	columns := []string{"pid", "tid", "cid", "title", "slug", "name", "uid", "username", "userslug", "picture",
		"content", "source_content", "is_main", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u")).
		WithArgs(true, pids).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(10), int64(1), int64(1), "Welcome", "1/welcome", "General", int64(2), "alice", "alice", "",
				"<p>hello</p>", "", true, created).
			AddRow(int64(41), int64(4), int64(1), "Newest", "4/newest", "General", int64(1), "admin", "admin", "",
				"reply one", "", false, created))

	summaries, err := store.PostSummaries(context.Background(), pids, admin)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(41), summaries[0].PID)
	assert.False(t, summaries[0].IsMainPost)
	assert.Equal(t, int64(10), summaries[1].PID)
	assert.True(t, summaries[1].IsMainPost)
	assert.Equal(t, "alice", summaries[1].Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreTopicCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM topics")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := store.TopicCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSeed(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	replied := created.Add(time.Hour)
	f := &Fixture{
		Categories: []FixtureCategory{{CID: 1, Name: "General", Slug: "1/general"}},
		Users:      []FixtureUser{{UID: 1, Username: "admin", Userslug: "admin"}},
		Groups:     map[string][]int64{"administrators": {1}},
		Topics: []FixtureTopic{{
			TID: 1, CID: 1, UID: 1, Title: "Welcome", Slug: "1/welcome", Views: 7, Timestamp: created,
			Posts: []FixturePost{
				{PID: 10, UID: 1, Content: "hello"},
				{PID: 11, UID: 1, Content: "reply", SourceContent: "reply text", Timestamp: replied},
			},
		}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WithArgs(int64(1), "General", "1/general", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(int64(1), "admin", "admin", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO group_members")).
		WithArgs("administrators", int64(1), time.Unix(0, 0).UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topics")).
		WithArgs(int64(1), int64(1), int64(1), "Welcome", "1/welcome", int64(10), false, created, 2, int64(7)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WithArgs(int64(10), int64(1), int64(1), "hello", "", false, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WithArgs(int64(11), int64(1), int64(1), "reply", "reply text", false, replied).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.Seed(context.Background(), f))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSeedRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	f := &Fixture{Categories: []FixtureCategory{{CID: 1, Name: "General"}}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WithArgs(int64(1), "General", "", false).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := store.Seed(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}
