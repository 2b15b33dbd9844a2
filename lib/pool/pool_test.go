package pool

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap(t *testing.T) {
	b, err := Heap.Alloc(100)
	require.NoError(t, err)
	assert.Len(t, b, 100)
	Heap.Free(b)

	_, err = Heap.Alloc(-1)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestMakeSliceRecovers(t *testing.T) {
	_, err := makeSlice(-5)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestClassOf(t *testing.T) {
	for size, want := range map[int]int{
		0: 0, 1: 0, 64: 0, 65: 1, 128: 1, 129: 2, 1023: 4, 1024: 4, 1025: 5,
	} {
		assert.Equal(t, want, classOf(size), "size %d", size)
	}
}

func TestSizeClassReuse(t *testing.T) {
	p := NewSizeClass()
	buf, err := p.Alloc(1023)
	require.NoError(t, err)
	assert.Len(t, buf, 1023)
	assert.Equal(t, 1024, cap(buf))

	p.Free(buf)
	assert.Equal(t, 1, p.Queued())

	buf1, err := p.Alloc(1024)
	require.NoError(t, err)
	assert.Len(t, buf1, 1024)
	assert.Same(t, &buf[0], &buf1[0])
	assert.Equal(t, 0, p.Queued())
}

func TestSizeClassIgnoresForeignRegions(t *testing.T) {
	p := NewSizeClass()
	p.Free(make([]byte, 10))
	p.Free(make([]byte, 100))
	p.Free(nil)
	assert.Equal(t, 0, p.Queued())
}

func TestSizeClassConcurrent(t *testing.T) {
	p := NewSizeClass()
	var wg sync.WaitGroup
	for g := 0; g < runtime.GOMAXPROCS(0)*4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				b, err := p.Alloc(64 + (g*i)%4096)
				if err != nil {
					t.Error(err)
					return
				}
				b[0] = byte(g)
				p.Free(b)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, p.Queued(), numClasses*maxQueued)
}

func TestBudget(t *testing.T) {
	b := Limit(nil, 100)

	r1, err := b.Alloc(60)
	require.NoError(t, err)
	assert.Equal(t, 60, b.InUse())

	_, err = b.Alloc(41)
	assert.ErrorIs(t, err, ErrNoMemory)
	assert.Equal(t, 60, b.InUse())

	r2, err := b.Alloc(40)
	require.NoError(t, err)
	assert.Equal(t, 100, b.InUse())

	b.Free(r1)
	b.Free(r2)
	assert.Equal(t, 0, b.InUse())

	b.SetLimit(0)
	_, err = b.Alloc(1)
	assert.ErrorIs(t, err, ErrNoMemory)
}

func TestBudgetOverSizeClass(t *testing.T) {
	sc := NewSizeClass()
	b := Limit(sc, 1<<20)
	r, err := b.Alloc(100)
	require.NoError(t, err)
	b.Free(r)
	assert.Equal(t, 0, b.InUse())
	assert.Equal(t, 1, sc.Queued())
}

func BenchmarkSizeClass(b *testing.B) {
	b.ReportAllocs()
	p := NewSizeClass()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf, _ := p.Alloc(4096)
			p.Free(buf)
		}
	})
}

func BenchmarkStdPool(b *testing.B) {
	b.ReportAllocs()
	bufpool := &sync.Pool{New: func() interface{} {
		return make([]byte, 4096)
	}}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := bufpool.Get().([]byte)
			bufpool.Put(buf) //nolint:staticcheck
		}
	})
}
