package vmutil

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"
	"golang.org/x/crypto/sha3"

	"chainvm/protocol/vm"
)

// DefaultCacheSize is the number of scripts a ScriptCache holds
// unless told otherwise.
const DefaultCacheSize = 1000

// ScriptCache remembers the outcome of strictly validating programs,
// keyed by the SHA3-256 of the program bytes. Invalid programs are
// cached with their error. It is safe for concurrent use; concurrent
// misses on one program validate it once.
type ScriptCache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	flight singleflight.Group
}

type cacheEntry struct {
	script *vm.Script
	err    error
}

func NewScriptCache(size int) *ScriptCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &ScriptCache{lru: lru.New(size)}
}

// Script returns the validated script for prog, validating it on a
// miss.
func (c *ScriptCache) Script(prog []byte) (*vm.Script, error) {
	key := sha3.Sum256(prog)
	if s, err, ok := c.lookup(key); ok {
		return s, err
	}
	v, _ := c.flight.Do(string(key[:]), func() (interface{}, error) {
		s, err := vm.NewScript(prog, true)
		c.cache(key, s, err)
		return cacheEntry{s, err}, nil
	})
	e := v.(cacheEntry)
	return e.script, e.err
}

// Len returns the number of cached programs.
func (c *ScriptCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *ScriptCache) lookup(key [32]byte) (s *vm.Script, err error, ok bool) {
	c.mu.Lock()
	v, ok := c.lru.Get(key)
	c.mu.Unlock()
	if !ok {
		return nil, nil, false
	}
	e := v.(cacheEntry)
	return e.script, e.err, true
}

func (c *ScriptCache) cache(key [32]byte, s *vm.Script, err error) {
	c.mu.Lock()
	c.lru.Add(key, cacheEntry{s, err})
	c.mu.Unlock()
}
