package shareptr

import (
	"testing"

	"github.com/zeebo/assert"
)

func TestRefcountPack(t *testing.T) {
	cases := [][2]int32{{0, 0}, {1, 0}, {0, 1}, {-1, 2}, {5, -5}, {1 << 20, -(1 << 20)}}
	for _, c := range cases {
		e, r := unpackRefcount(packRefcount(c[0], c[1]))
		assert.Equal(t, e, c[0])
		assert.Equal(t, r, c[1])
	}
}

func TestRefBlockAdjust(t *testing.T) {
	v := 7
	b := newRefBlock(&v, 0, 1)

	assert.That(t, !b.adjust(+1, 0))
	e, r := b.counts.load()
	assert.Equal(t, e, int32(1))
	assert.Equal(t, r, int32(1))

	assert.That(t, !b.adjust(-1, +1))
	e, r = b.counts.load()
	assert.Equal(t, e, int32(0))
	assert.Equal(t, r, int32(2))

	assert.That(t, !b.adjust(0, -1))
	assert.That(t, b.adjust(0, -1))
}

func TestRefBlockDestroyOrRecycle(t *testing.T) {
	v := 7
	b := newRefBlock(&v, 0, 1)

	called := false
	b.SetPoolHook(func(got *RefBlock[int]) {
		called = true
		assert.That(t, got == b)
	})
	assert.That(t, b.PoolHook() != nil)

	assert.That(t, b.adjust(0, -1))
	b.destroyOrRecycle()
	assert.That(t, called)
}

type closeSpy struct {
	closed *bool
}

func (c closeSpy) Close() error {
	*c.closed = true
	return nil
}

func TestRefBlockDiscardPayloadClosesCloser(t *testing.T) {
	closed := false
	b := newRefBlock(&closeSpy{closed: &closed}, 0, 1)

	assert.That(t, b.adjust(0, -1))
	b.destroyOrRecycle()
	assert.That(t, closed)
	assert.That(t, b.payload == nil)
}

func TestRefBlockResetForPinAndSlot(t *testing.T) {
	v1, v2 := 1, 2
	b := newRefBlock(&v1, 1, 0)
	assert.That(t, b.adjust(-1, 0))

	b.resetForPin(&v2)
	e, r := b.counts.load()
	assert.Equal(t, e, int32(1))
	assert.Equal(t, r, int32(0))
	assert.That(t, b.payload == &v2)

	b.resetForSlot(&v1)
	e, r = b.counts.load()
	assert.Equal(t, e, int32(0))
	assert.Equal(t, r, int32(1))
	assert.That(t, b.payload == &v1)
}
