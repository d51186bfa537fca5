package service

import (
	"sync"
	"time"

	"github.com/apexcoach/telemetry-coach/pkg/processing"
)

type (
	// ResultLookup maps session fingerprints to their processed results.
	ResultLookup map[string]*ResultData
	ResultData   struct {
		Result     *processing.Result
		Registered time.Time
	}
	// Registry keeps processed sessions for the output services. Watch
	// mode registers from its handler goroutine while commands may read
	// concurrently, hence the lock.
	Registry struct {
		mu     sync.RWMutex
		lookup ResultLookup
	}
)

func NewRegistry() *Registry {
	return &Registry{lookup: ResultLookup{}}
}

// Register stores a result under its fingerprint. Re-registering the same
// fingerprint replaces the entry, the recomputation is deterministic.
func (r *Registry) Register(res *processing.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookup[res.Fingerprint] = &ResultData{Result: res, Registered: time.Now()}
}

func (r *Registry) Get(fingerprint string) (*processing.Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.lookup[fingerprint]
	if !ok {
		return nil, false
	}
	return data.Result, true
}

func (r *Registry) Remove(fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lookup, fingerprint)
}

// All returns a snapshot of the registered results.
func (r *Registry) All() []*processing.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]*processing.Result, 0, len(r.lookup))
	for _, data := range r.lookup {
		ret = append(ret, data.Result)
	}
	return ret
}
