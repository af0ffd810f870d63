package records_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stevemurr/gwconsole/records"
	"github.com/stevemurr/gwconsole/schema"
	"github.com/stevemurr/gwconsole/store"
)

var errDiskFull = errors.New("disk full")

// flakyStore wraps a MemoryStore and fails writes on demand.
type flakyStore struct {
	*store.MemoryStore

	mu      sync.Mutex
	fail    bool
	writes  int
	deletes int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (f *flakyStore) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.fail {
		return errDiskFull
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.fail {
		return errDiskFull
	}
	return f.MemoryStore.Delete(ctx, key)
}

func (f *flakyStore) counts() (writes, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes, f.deletes
}

func vpnSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, ok := schema.Preset("vpn-accounts")
	require.True(t, ok)
	return s
}

func trunkSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, ok := schema.Preset("sip-trunks")
	require.True(t, ok)
	return s
}

func account(name string) records.Record {
	return records.Record{"username": name, "password": "pw-" + name}
}

// openVPN opens a vpn-accounts list over slot, pre-filled with the named
// accounts.
func openVPN(t *testing.T, slot store.Store, names ...string) *records.List {
	t.Helper()
	ctx := context.Background()
	l, err := records.Open(ctx, "vpn-accounts", vpnSchema(t), slot)
	require.NoError(t, err)
	for _, n := range names {
		_, err := l.Append(ctx, account(n))
		require.NoError(t, err)
	}
	return l
}

func usernames(recs []records.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i], _ = r["username"].(string)
	}
	return out
}

type countingObserver struct {
	mu         sync.Mutex
	mutations  map[string]int
	dispatched map[records.Command]int
	invalid    int
	failed     map[string]int
	size       int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		mutations:  map[string]int{},
		dispatched: map[records.Command]int{},
		failed:     map[string]int{},
	}
}

func (o *countingObserver) Mutated(_, op string, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mutations[op]++
	o.size = size
}

func (o *countingObserver) Dispatched(_ string, cmd records.Command) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dispatched[cmd]++
}

func (o *countingObserver) ValidationFailed(string, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invalid++
}

func (o *countingObserver) PersistFailed(_, op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[op]++
}
