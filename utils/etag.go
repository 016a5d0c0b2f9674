package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"
)

// GenerateETag derives a weak validator from a record id and its last
// modification time.
func GenerateETag(id string, modified time.Time) string {
	h := sha1.New()
	h.Write([]byte(id))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(modified.UnixNano(), 10)))
	return `W/"` + hex.EncodeToString(h.Sum(nil))[:16] + `"`
}

// ListETag combines the count and the newest modification of a list.
func ListETag(count int, newestID string, newest time.Time) string {
	return GenerateETag(strconv.Itoa(count)+":"+newestID, newest)
}
