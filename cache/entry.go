package cache

import (
	"encoding/json"
	"errors"
	"time"
)

var errMalformed = errors.New("cache: malformed record")

// record is the persisted form of an entry. Its encoded length is the
// entry's size for budget accounting.
type record struct {
	Value     string `json:"value"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
	TTL       int64  `json:"ttl"`       // seconds
}

func encodeRecord(value string, createdAt time.Time, ttl time.Duration) ([]byte, error) {
	return json.Marshal(record{
		Value:     value,
		CreatedAt: createdAt.UnixMilli(),
		TTL:       int64(ttl / time.Second),
	})
}

func decodeRecord(b []byte) (record, error) {
	var r record
	if len(b) == 0 {
		return r, errMalformed
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, errors.Join(errMalformed, err)
	}
	if r.CreatedAt <= 0 || r.TTL <= 0 {
		return r, errMalformed
	}
	return r, nil
}

// valid reports now - createdAt <= ttl.
func (r record) valid(now time.Time) bool {
	return now.UnixMilli()-r.CreatedAt <= r.TTL*1000
}
