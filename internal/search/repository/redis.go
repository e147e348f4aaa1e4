package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"forum_search_backend/internal/search/ports"
)

// RedisStore reads a NodeBB database kept in Redis.
type RedisStore struct {
	rdb redis.UniversalClient
}

// NewRedisStore creates a store over rdb.
func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) RecentTopics(ctx context.Context, limit int, readAs ports.Identity) ([]ports.Topic, error) {
	if limit < 1 {
		return []ports.Topic{}, nil
	}
	members, err := s.rdb.ZRevRange(ctx, keyTopicsByTime, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, wrap("redis.RecentTopics", err)
	}

	hashes, err := s.hashes(ctx, topicKeys(parseIDs(members)))
	if err != nil {
		return nil, wrap("redis.RecentTopics", err)
	}

	topics := make([]ports.Topic, 0, len(hashes))
	for _, h := range hashes {
		if len(h) == 0 {
			continue
		}
		topics = append(topics, topicFromHash(h))
	}
	if readAs.Privileged {
		return topics, nil
	}

	categories, err := s.categories(ctx, topicCIDs(topics))
	if err != nil {
		return nil, wrap("redis.RecentTopics", err)
	}
	visible := topics[:0]
	for _, t := range topics {
		if t.Deleted || categories[t.CID].Restricted {
			continue
		}
		visible = append(visible, t)
	}
	return visible, nil
}

func (s *RedisStore) PostTexts(ctx context.Context, pids []int64, readAs ports.Identity) ([]ports.Document, error) {
	if len(pids) == 0 {
		return []ports.Document{}, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.SliceCmd, len(pids))
	for i, pid := range pids {
		cmds[i] = pipe.HMGet(ctx, postKey(pid), postTextFields...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, wrap("redis.PostTexts", err)
	}

	type entry struct {
		doc ports.Document
		tid int64
	}
	entries := make([]entry, 0, len(pids))
	for i, cmd := range cmds {
		doc, deleted, tid, ok := documentFromFields(pids[i], cmd.Val())
		if !ok || (deleted && !readAs.Privileged) {
			continue
		}
		entries = append(entries, entry{doc: doc, tid: tid})
	}

	docs := make([]ports.Document, 0, len(entries))
	if readAs.Privileged {
		for _, e := range entries {
			docs = append(docs, e.doc)
		}
		return docs, nil
	}

	tids := make([]int64, 0, len(entries))
	for _, e := range entries {
		tids = append(tids, e.tid)
	}
	hidden, err := s.hiddenTopics(ctx, tids)
	if err != nil {
		return nil, wrap("redis.PostTexts", err)
	}
	for _, e := range entries {
		if hidden[e.tid] {
			continue
		}
		docs = append(docs, e.doc)
	}
	return docs, nil
}

func (s *RedisStore) ReplyPIDs(ctx context.Context, tid int64, limit int, readAs ports.Identity) ([]int64, error) {
	if limit < 1 {
		return []int64{}, nil
	}
	if !readAs.Privileged {
		hidden, err := s.hiddenTopics(ctx, []int64{tid})
		if err != nil {
			return nil, wrap("redis.ReplyPIDs", err)
		}
		if hidden[tid] {
			return []int64{}, nil
		}
	}

	mainPID, err := s.rdb.HGet(ctx, topicKey(tid), "mainPid").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, wrap("redis.ReplyPIDs", err)
	}

	// Read one extra in case the main post is stored in the reply set.
	members, err := s.rdb.ZRevRange(ctx, topicPostsKey(tid), 0, int64(limit)).Result()
	if err != nil {
		return nil, wrap("redis.ReplyPIDs", err)
	}
	pids := make([]int64, 0, limit)
	main := parseInt(mainPID)
	for _, pid := range parseIDs(members) {
		if pid == main || len(pids) == limit {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

func (s *RedisStore) FirstGroupMember(ctx context.Context, group string) (int64, bool, error) {
	members, err := s.rdb.ZRange(ctx, groupMembersKey(group), 0, 0).Result()
	if err != nil {
		return 0, false, wrap("redis.FirstGroupMember", err)
	}
	if len(members) == 0 {
		return 0, false, nil
	}
	uid, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return 0, false, wrap("redis.FirstGroupMember", err)
	}
	return uid, true, nil
}

func (s *RedisStore) IsGroupMember(ctx context.Context, group string, uid int64) (bool, error) {
	_, err := s.rdb.ZScore(ctx, groupMembersKey(group), strconv.FormatInt(uid, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, wrap("redis.IsGroupMember", err)
	}
	return true, nil
}

func (s *RedisStore) PostSummaries(ctx context.Context, pids []int64, readAs ports.Identity) ([]ports.PostSummary, error) {
	if len(pids) == 0 {
		return []ports.PostSummary{}, nil
	}

	keys := make([]string, len(pids))
	for i, pid := range pids {
		keys[i] = postKey(pid)
	}
	posts, err := s.hashes(ctx, keys)
	if err != nil {
		return nil, wrap("redis.PostSummaries", err)
	}

	tidSet := map[int64]struct{}{}
	uidSet := map[int64]struct{}{}
	for _, h := range posts {
		if len(h) == 0 {
			continue
		}
		tidSet[parseInt(h["tid"])] = struct{}{}
		uidSet[parseInt(h["uid"])] = struct{}{}
	}

	tids := setKeys(tidSet)
	topicHashes, err := s.hashes(ctx, topicKeys(tids))
	if err != nil {
		return nil, wrap("redis.PostSummaries", err)
	}
	topics := make(map[int64]ports.Topic, len(tids))
	for i, h := range topicHashes {
		if len(h) == 0 {
			continue
		}
		topics[tids[i]] = topicFromHash(h)
	}

	cids := make([]int64, 0, len(topics))
	for _, t := range topics {
		cids = append(cids, t.CID)
	}
	categories, err := s.categories(ctx, cids)
	if err != nil {
		return nil, wrap("redis.PostSummaries", err)
	}

	authors, err := s.authors(ctx, setKeys(uidSet))
	if err != nil {
		return nil, wrap("redis.PostSummaries", err)
	}

	summaries := make([]ports.PostSummary, 0, len(pids))
	for i, h := range posts {
		if len(h) == 0 {
			continue
		}
		tid := parseInt(h["tid"])
		topic, ok := topics[tid]
		if !ok {
			continue
		}
		category := categories[topic.CID]
		if !readAs.Privileged && (parseBool(h["deleted"]) || topic.Deleted || category.Restricted) {
			continue
		}
		uid := parseInt(h["uid"])
		summaries = append(summaries, ports.PostSummary{
			PID:           pids[i],
			TID:           tid,
			CID:           topic.CID,
			TopicTitle:    topic.Title,
			TopicSlug:     topic.Slug,
			CategoryName:  category.Name,
			Author:        authors[uid],
			Content:       h["content"],
			SourceContent: h["sourceContent"],
			IsMainPost:    topic.MainPID == pids[i],
			Timestamp:     parseMillis(h["timestamp"]),
		})
	}
	return summaries, nil
}

func (s *RedisStore) TopicCount(ctx context.Context) (int64, error) {
	count, err := s.rdb.HGet(ctx, keyGlobal, fieldTopicCount).Int64()
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, wrap("redis.TopicCount", err)
	}
	count, err = s.rdb.ZCard(ctx, keyTopicsByTime).Result()
	if err != nil {
		return 0, wrap("redis.TopicCount", err)
	}
	return count, nil
}

// hashes runs HGETALL for every key in one pipeline. Missing keys yield an
// empty map at the same index.
func (s *RedisStore) hashes(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make([]map[string]string, len(keys))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

func (s *RedisStore) categories(ctx context.Context, cids []int64) (map[int64]categoryInfo, error) {
	cids = uniqueIDs(cids)
	keys := make([]string, len(cids))
	for i, cid := range cids {
		keys[i] = categoryKey(cid)
	}
	hashes, err := s.hashes(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]categoryInfo, len(cids))
	for i, h := range hashes {
		out[cids[i]] = categoryFromHash(h)
	}
	return out, nil
}

func (s *RedisStore) authors(ctx context.Context, uids []int64) (map[int64]ports.Author, error) {
	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = userKey(uid)
	}
	hashes, err := s.hashes(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]ports.Author, len(uids))
	for i, h := range hashes {
		out[uids[i]] = authorFromHash(uids[i], h)
	}
	return out, nil
}

// hiddenTopics reports which of tids a non-privileged reader cannot see.
// Unknown topics count as hidden.
func (s *RedisStore) hiddenTopics(ctx context.Context, tids []int64) (map[int64]bool, error) {
	tids = uniqueIDs(tids)
	hashes, err := s.hashes(ctx, topicKeys(tids))
	if err != nil {
		return nil, err
	}
	topics := make([]ports.Topic, 0, len(hashes))
	for _, h := range hashes {
		if len(h) > 0 {
			topics = append(topics, topicFromHash(h))
		}
	}
	categories, err := s.categories(ctx, topicCIDs(topics))
	if err != nil {
		return nil, err
	}

	hidden := make(map[int64]bool, len(tids))
	for _, tid := range tids {
		hidden[tid] = true
	}
	for _, t := range topics {
		hidden[t.TID] = t.Deleted || categories[t.CID].Restricted
	}
	return hidden, nil
}

func topicKeys(tids []int64) []string {
	keys := make([]string, len(tids))
	for i, tid := range tids {
		keys[i] = topicKey(tid)
	}
	return keys
}

func topicCIDs(topics []ports.Topic) []int64 {
	cids := make([]int64, 0, len(topics))
	for _, t := range topics {
		cids = append(cids, t.CID)
	}
	return cids
}

func parseIDs(members []string) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
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

func setKeys(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
