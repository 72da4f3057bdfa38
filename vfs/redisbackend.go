package vfs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a remote [Storage] backend for sandboxes shared across
// multiple host processes (e.g. several workers fronting the same
// session id behind a load balancer). Every key is namespaced under the
// sandbox id so that one Redis instance can back many sandboxes without
// collisions, and a per-sandbox set tracks the keyspace for Children/
// PathsByPrefix without a Redis-side KEYS scan.
type Redis struct {
	client    *redis.Client
	sandboxID string
	timeout   time.Duration
}

var _ Storage = (*Redis)(nil)

// NewRedis constructs a backend scoped to sandboxID against an existing
// client. The caller owns the client's lifecycle (Close it when done);
// multiple Redis backends may share one client safely.
func NewRedis(client *redis.Client, sandboxID string) *Redis {
	return &Redis{client: client, sandboxID: sandboxID, timeout: 5 * time.Second}
}

func (r *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *Redis) entryKey(path string) string {
	return fmt.Sprintf("asbx:%s:entry:%s", r.sandboxID, path)
}

func (r *Redis) indexKey() string {
	return fmt.Sprintf("asbx:%s:index", r.sandboxID)
}

func (r *Redis) Get(path string) (FileEntry, bool) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.Get(ctx, r.entryKey(path)).Bytes()
	if err != nil {
		return FileEntry{}, false
	}

	e, err := decodeEntry(data)
	if err != nil {
		return FileEntry{}, false
	}

	return e, true
}

func (r *Redis) Set(path string, entry FileEntry) {
	ctx, cancel := r.ctx()
	defer cancel()

	blob, err := encodeEntry(entry)
	if err != nil {
		return
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.entryKey(path), blob, 0)
	pipe.SAdd(ctx, r.indexKey(), path)
	_, _ = pipe.Exec(ctx)
}

func (r *Redis) Delete(path string) bool {
	ctx, cancel := r.ctx()
	defer cancel()

	n, err := r.client.Del(ctx, r.entryKey(path)).Result()

	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, r.indexKey(), path)
	_, _ = pipe.Exec(ctx)

	return err == nil && n > 0
}

func (r *Redis) Exists(path string) bool {
	ctx, cancel := r.ctx()
	defer cancel()

	n, err := r.client.Exists(ctx, r.entryKey(path)).Result()

	return err == nil && n > 0
}

func (r *Redis) AllPaths() []string {
	ctx, cancel := r.ctx()
	defer cancel()

	paths, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil
	}

	return paths
}

func (r *Redis) PathsByPrefix(prefix string) []string {
	var out []string

	for _, p := range r.AllPaths() {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}

	return out
}

func (r *Redis) Children(dir string) []string {
	prefix := childPrefix(dir)

	var out []string

	for _, p := range r.AllPaths() {
		if p == dir || !strings.HasPrefix(p, prefix) {
			continue
		}

		remainder := strings.TrimPrefix(p, prefix)
		if strings.Contains(remainder, "/") {
			continue
		}

		out = append(out, remainder)
	}

	sort.Strings(out)

	return out
}

func (r *Redis) Clear() {
	ctx, cancel := r.ctx()
	defer cancel()

	paths := r.AllPaths()
	if len(paths) == 0 {
		return
	}

	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, r.entryKey(p))
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.Del(ctx, r.indexKey())
	_, _ = pipe.Exec(ctx)
}

func (r *Redis) Count() int {
	return len(r.AllPaths())
}

func (r *Redis) AllPairs() map[string]FileEntry {
	out := make(map[string]FileEntry)

	for _, p := range r.AllPaths() {
		if e, ok := r.Get(p); ok {
			out[p] = e
		}
	}

	return out
}

func (r *Redis) SetMany(entries map[string]FileEntry) {
	for p, e := range entries {
		r.Set(p, e)
	}
}
