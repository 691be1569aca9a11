// Package cookiejar persists cookies between curler invocations in a
// bbolt file, one bucket per host.
package cookiejar

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/adamwoolhether/curler/client/form"
)

const expiryValueBytes = 8

// SessionTTL is how long cookies without Expires or Max-Age are kept.
const SessionTTL = 24 * time.Hour

// Jar is a bbolt backed cookie store.
type Jar struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens or creates the jar at path.
func Open(path string) (*Jar, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create jar directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}

	return &Jar{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (j *Jar) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Cookies returns the unexpired cookies stored for host, ordered by name.
// Expired entries are removed.
func (j *Jar) Cookies(host string) (form.Form, error) {
	var out form.Form
	now := j.now()

	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(host))
		if bucket == nil {
			return nil
		}

		var expired [][]byte
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, value, ok := decode(v)
			if !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
				continue
			}
			out = append(out, form.Pair{Key: string(k), Value: value})
		}

		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read cookies for %s: %w", host, err)
	}

	return out, nil
}

// Store saves cookies for host. A cookie with a negative Max-Age or an
// Expires in the past deletes the stored entry.
func (j *Jar) Store(host string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	now := j.now()

	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(host))
		if err != nil {
			return err
		}

		for _, c := range cookies {
			if c.Name == "" {
				continue
			}

			expiry := expiryOf(c, now)
			if !expiry.After(now) {
				if err := bucket.Delete([]byte(c.Name)); err != nil {
					return err
				}
				continue
			}

			if err := bucket.Put([]byte(c.Name), encode(expiry, c.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store cookies for %s: %w", host, err)
	}

	return nil
}

func expiryOf(c *http.Cookie, now time.Time) time.Time {
	switch {
	case c.MaxAge < 0:
		return now
	case c.MaxAge > 0:
		return now.Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		return c.Expires
	default:
		return now.Add(SessionTTL)
	}
}

func encode(expiry time.Time, value string) []byte {
	buf := make([]byte, expiryValueBytes+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryValueBytes:], value)
	return buf
}

func decode(raw []byte) (time.Time, string, bool) {
	if len(raw) < expiryValueBytes {
		return time.Time{}, "", false
	}
	unix := int64(binary.BigEndian.Uint64(raw[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, "", false
	}
	return time.Unix(unix, 0), string(raw[expiryValueBytes:]), true
}
