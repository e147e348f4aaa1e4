package repository

import (
	"strconv"
	"strings"
	"time"

	"forum_search_backend/internal/search/ports"
)

// NodeBB key layout.
const (
	keyTopicsByTime = "topics:tid"
	keyGlobal       = "global"
	fieldTopicCount = "topicCount"
)

func topicKey(tid int64) string       { return "topic:" + strconv.FormatInt(tid, 10) }
func topicPostsKey(tid int64) string  { return "tid:" + strconv.FormatInt(tid, 10) + ":posts" }
func postKey(pid int64) string        { return "post:" + strconv.FormatInt(pid, 10) }
func categoryKey(cid int64) string    { return "category:" + strconv.FormatInt(cid, 10) }
func userKey(uid int64) string        { return "user:" + strconv.FormatInt(uid, 10) }
func groupMembersKey(g string) string { return "group:" + g + ":members" }

// Hash fields read for posts when only their text is needed.
var postTextFields = []string{"pid", "content", "sourceContent", "deleted", "tid"}

// Legacy installs store the view counter as "views".
var viewCountFields = []string{"viewcount", "views"}

// topicFromHash maps a topic hash to a Topic. Missing numeric fields read as
// zero.
func topicFromHash(h map[string]string) ports.Topic {
	return ports.Topic{
		TID:       parseInt(h["tid"]),
		CID:       parseInt(h["cid"]),
		UID:       parseInt(h["uid"]),
		Title:     h["title"],
		Slug:      h["slug"],
		MainPID:   parseInt(h["mainPid"]),
		Deleted:   parseBool(h["deleted"]),
		Timestamp: parseMillis(h["timestamp"]),
		Stats: ports.TopicStats{
			PostCount: parseInt(h["postcount"]),
			ViewCount: parseInt(firstField(h, viewCountFields...)),
		},
	}
}

// documentFromFields maps the HMGET reply for postTextFields.
func documentFromFields(pid int64, values []any) (doc ports.Document, deleted bool, tid int64, ok bool) {
	if len(values) != len(postTextFields) || values[0] == nil {
		return ports.Document{}, false, 0, false
	}
	doc = ports.Document{
		PID:           pid,
		Content:       stringValue(values[1]),
		SourceContent: stringValue(values[2]),
	}
	return doc, parseBool(stringValue(values[3])), parseInt(stringValue(values[4])), true
}

type categoryInfo struct {
	Name       string
	Restricted bool
}

func categoryFromHash(h map[string]string) categoryInfo {
	return categoryInfo{Name: h["name"], Restricted: parseBool(h["restricted"])}
}

func authorFromHash(uid int64, h map[string]string) ports.Author {
	return ports.Author{
		UID:      uid,
		Username: h["username"],
		Userslug: h["userslug"],
		Picture:  h["picture"],
	}
}

func firstField(h map[string]string, fields ...string) string {
	for _, f := range fields {
		if v, ok := h[f]; ok && v != "" {
			return v
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	switch strings.TrimSpace(s) {
	case "1", "true":
		return true
	}
	return false
}

func parseMillis(s string) time.Time {
	ms := parseInt(s)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
