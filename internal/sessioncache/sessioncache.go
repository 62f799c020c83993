// Package sessioncache optionally persists advisory per-client negotiation
// state (the compression threshold most recently negotiated for a remote
// address) into etcd, the same way a service registry uses etcd as a
// distributed phonebook for instance metadata.
//
// This is read-only-advisory state, never authoritative: a cache miss or a
// completely absent etcd connection must never change the session state
// machine's behavior — losing this cache only means a reconnecting
// client's debug log is less rich, nothing in the wire protocol depends
// on it.
package sessioncache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/minecraft-go-proxy/sessions/"

// Entry is the advisory state recorded for a remote address.
type Entry struct {
	CompressionThreshold int    `json:"compression_threshold"`
	Intent               string `json:"intent"`
}

// Cache wraps an etcd client. A nil *Cache is valid and every method on it
// is a no-op — callers never need to branch on whether caching is enabled.
type Cache struct {
	client *clientv3.Client
}

// New connects to the given etcd endpoints. Passing no endpoints (the
// default when --etcd-endpoints is unset) should be handled by the caller
// using a nil *Cache instead of calling New.
func New(endpoints []string) (*Cache, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("sessioncache: connect to etcd: %w", err)
	}
	return &Cache{client: c}, nil
}

// Remember stores the negotiated entry for remoteAddr with a short TTL — it
// is advisory logging context for the *next* connection, not state the
// proxy ever reads back to change protocol behavior.
func (c *Cache) Remember(ctx context.Context, remoteAddr string, entry Entry) error {
	if c == nil {
		return nil
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("sessioncache: encode entry: %w", err)
	}
	lease, err := c.client.Grant(ctx, 300)
	if err != nil {
		return fmt.Errorf("sessioncache: grant lease: %w", err)
	}
	_, err = c.client.Put(ctx, keyPrefix+remoteAddr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return fmt.Errorf("sessioncache: put entry: %w", err)
	}
	return nil
}

// Lookup returns the previously remembered entry for remoteAddr, if any.
// found is false whenever c is nil, the key is absent, or etcd is
// unreachable — callers must treat a miss exactly like a fresh connection.
func (c *Cache) Lookup(ctx context.Context, remoteAddr string) (entry Entry, found bool) {
	if c == nil {
		return Entry{}, false
	}
	resp, err := c.client.Get(ctx, keyPrefix+remoteAddr)
	if err != nil || len(resp.Kvs) == 0 {
		return Entry{}, false
	}
	if err := json.Unmarshal(resp.Kvs[0].Value, &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

// Close releases the underlying etcd client. Safe to call on a nil *Cache.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
