package cache

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// PublicSessionsKey caches the list of public scheduled watch parties.
const PublicSessionsKey = "sessions:public"

func SessionKey(id string) string { return "session:" + id }

func UserSessionsKey(userID string) string { return "sessions:user:" + userID }

func MovieKey(id int64) string { return "movie:" + strconv.FormatInt(id, 10) }

func BucketKey(userID string) string { return "bucket:" + userID }

func BucketRuntimeKey(userID string) string { return "bucket:runtime:" + userID }

// SearchKey derives a fixed-length key from free text.  Queries that only
// differ in case or spacing share an entry.
func SearchKey(query string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	h, _ := blake2b.New(16, nil) // 16 is a valid size, New cannot fail
	h.Write([]byte(norm))
	return "search:" + hex.EncodeToString(h.Sum(nil))
}
