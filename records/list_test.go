package records_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/gwconsole/records"
	"github.com/stevemurr/gwconsole/store"
)

func TestOpenLoadsExistingSlot(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemoryStore()
	require.NoError(t, slot.Set(ctx, "vpn-accounts", `[{"username":"a","password":"x"},{"username":"b","password":"y"}]`))

	l := openVPN(t, slot)
	assert.Equal(t, "vpn-accounts", l.Name())
	assert.Equal(t, []string{"a", "b"}, usernames(l.Records()))
}

func TestOpenWithKey(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemoryStore()
	l, err := records.Open(ctx, "vpn", vpnSchema(t), slot, records.WithKey("site-a.vpn"))
	require.NoError(t, err)
	_, err = l.Append(ctx, account("a"))
	require.NoError(t, err)

	keys, err := slot.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"site-a.vpn"}, keys)
}

func TestSelectionClearedOnResize(t *testing.T) {
	ctx := context.Background()
	l := openVPN(t, store.NewMemoryStore(), "a", "b", "c")

	require.NoError(t, l.Toggle(0))
	_, err := l.Append(ctx, account("d"))
	require.NoError(t, err)
	assert.Empty(t, l.Selected())

	require.NoError(t, l.Toggle(3))
	require.NoError(t, l.Replace(ctx, 0, account("A")))
	assert.Equal(t, []int{3}, l.Selected(), "replace keeps the length and the selection")
}

func TestSelectionClearedOnReload(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemoryStore()
	l := openVPN(t, slot, "a")
	require.NoError(t, l.Toggle(0))

	require.NoError(t, slot.Set(ctx, "vpn-accounts", `[]`))
	require.NoError(t, l.Reload(ctx))
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Selected())
}

func TestToggleOutOfRange(t *testing.T) {
	l := openVPN(t, store.NewMemoryStore(), "a")
	assert.ErrorIs(t, l.Toggle(1), records.ErrPositionOutOfRange)
	assert.ErrorIs(t, l.Toggle(-1), records.ErrPositionOutOfRange)
	assert.Empty(t, l.Selected())
}

func TestView(t *testing.T) {
	l := openVPN(t, store.NewMemoryStore(), "a", "b")
	require.NoError(t, l.Toggle(1))

	v := l.View()
	assert.Equal(t, "vpn-accounts", v.Name)
	assert.Equal(t, "VPN Accounts", v.Title)
	assert.Equal(t, []int{1}, v.Selected)
	assert.False(t, v.Dirty)
	assert.Nil(t, v.Editor)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, records.Row{Position: 1, Index: 2, Selected: true, Record: account("b")}, v.Rows[1])
	assert.False(t, v.Rows[0].Selected)
}

func TestObserverNotified(t *testing.T) {
	ctx := context.Background()
	slot := newFlakyStore()
	obs := newCountingObserver()
	l, err := records.Open(ctx, "vpn-accounts", vpnSchema(t), slot, records.WithObserver(obs))
	require.NoError(t, err)

	_, err = l.Append(ctx, account("a"))
	require.NoError(t, err)
	_, err = l.Append(ctx, records.Record{})
	require.Error(t, err)
	require.NoError(t, l.Dispatch(ctx, records.CheckAll))

	slot.setFail(true)
	require.Error(t, l.Dispatch(ctx, records.Delete))
	require.Error(t, l.Flush(ctx))

	assert.Equal(t, 1, obs.mutations["load"])
	assert.Equal(t, 1, obs.mutations["append"])
	assert.Equal(t, 1, obs.mutations["delete"])
	assert.Equal(t, 1, obs.invalid)
	assert.Equal(t, 1, obs.dispatched[records.CheckAll])
	assert.Equal(t, 1, obs.dispatched[records.Delete])
	assert.Equal(t, 1, obs.failed["delete"])
	assert.Equal(t, 1, obs.failed["flush"])
	assert.Equal(t, 0, obs.size)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	slot := store.NewMemoryStore()
	l := openVPN(t, slot)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Append(ctx, account(fmt.Sprintf("user%02d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, l.Len())
	assert.Equal(t, 20, openVPN(t, slot).Len())
}
