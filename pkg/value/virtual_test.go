package value

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls int
	err   error
}

func (p *fakeProvider) Fetch(ctx context.Context) (*Node, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	n := New("counter", "", nil)
	n.SetInt(int64(p.calls))
	return n, nil
}

func TestFetchCallsProviderOnceWithinTTL(t *testing.T) {
	n := New("counter", "", nil)
	provider := &fakeProvider{}
	n.SetVirtual(provider)
	require.True(t, n.IsVirtual())

	now := time.Unix(1000, 0)
	restore := virtualNow
	virtualNow = func() time.Time { return now }
	defer func() { virtualNow = restore }()

	v1, err := n.Fetch(context.Background(), time.Minute)
	require.NoError(t, err)
	i1, _ := v1.Int()
	assert.Equal(t, int64(1), i1)

	v2, err := n.Fetch(context.Background(), time.Minute)
	require.NoError(t, err)
	i2, _ := v2.Int()
	assert.Equal(t, int64(1), i2)
	assert.Equal(t, 1, provider.calls)
}

func TestFetchRefetchesAfterTTLExpires(t *testing.T) {
	n := New("counter", "", nil)
	provider := &fakeProvider{}
	n.SetVirtual(provider)

	now := time.Unix(2000, 0)
	restore := virtualNow
	virtualNow = func() time.Time { return now }
	defer func() { virtualNow = restore }()

	_, err := n.Fetch(context.Background(), time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	v2, err := n.Fetch(context.Background(), time.Second)
	require.NoError(t, err)
	i2, _ := v2.Int()
	assert.Equal(t, int64(2), i2)
	assert.Equal(t, 2, provider.calls)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	n := New("counter", "", nil)
	provider := &fakeProvider{}
	n.SetVirtual(provider)

	_, err := n.Fetch(context.Background(), -1)
	require.NoError(t, err)
	n.Invalidate()
	_, err = n.Fetch(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestFetchPropagatesProviderError(t *testing.T) {
	n := New("counter", "", nil)
	boom := errors.New("fetch failed")
	n.SetVirtual(&fakeProvider{err: boom})

	_, err := n.Fetch(context.Background(), time.Second)
	assert.ErrorIs(t, err, boom)
}

func TestFetchOnNonVirtualNodeReturnsSelf(t *testing.T) {
	n := New("leaf", "", nil)
	n.SetString("x")
	out, err := n.Fetch(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Same(t, n, out)
}
