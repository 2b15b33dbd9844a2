package script

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpemud/dynbuf"
	"github.com/fpemud/dynbuf/lib/pool"
)

const demo = `
steps:
  - op: append
    data: str
  - op: append
    data: ing
  - op: insert
    pos: 0
    data: foo
  - op: remove
    pos: 2
    count: 4
  - op: append_fill
    fill: a
    count: 3
  - op: insert_fill
    pos: 0
    fill: b
    count: 3
  - op: write_fill
    pos: 3
    fill: c
    count: 5
`

func TestRunDemo(t *testing.T) {
	s, err := Parse([]byte(demo))
	require.NoError(t, err)
	require.Len(t, s.Steps, 7)

	var lines []string
	b := dynbuf.New()
	defer b.Free()
	require.NoError(t, s.Run(b, func(i int, st Step, b *dynbuf.DynBuf) {
		lines = append(lines, Show(b))
	}))
	assert.Equal(t, []string{
		"len: 3\tptr: 'str'",
		"len: 6\tptr: 'string'",
		"len: 9\tptr: 'foostring'",
		"len: 5\tptr: 'foing'",
		"len: 8\tptr: 'foingaaa'",
		"len: 11\tptr: 'bbbfoingaaa'",
		"len: 11\tptr: 'bbbcccccaaa'",
	}, lines)
}

func TestParseCollectsErrors(t *testing.T) {
	_, err := Parse([]byte(`
steps:
  - op: append_fill
    fill: ab
    count: -1
  - op: explode
  - data: x
`))
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
	assert.Contains(t, err.Error(), "step 1")
	assert.Contains(t, err.Error(), `unknown op "explode"`)
	assert.Contains(t, err.Error(), "missing op")
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte("steps: [op: {"))
	assert.Error(t, err)
}

func TestRunRangeErrors(t *testing.T) {
	tests := []Step{
		{Op: OpInsert, Pos: 4, Data: "x"},
		{Op: OpInsertFill, Pos: 4, Fill: "x", Count: 1},
		{Op: OpWrite, Pos: 4, Data: "x"},
		{Op: OpWriteFill, Pos: 9, Fill: "x", Count: 1},
		{Op: OpRemove, Pos: 2, Count: 2},
		{Op: OpRemove, Pos: 4},
		{Op: OpShrink, Count: 4},
	}
	for _, st := range tests {
		t.Run(st.String(), func(t *testing.T) {
			var b dynbuf.DynBuf
			require.NoError(t, b.Append([]byte("abc")))
			err := (&Script{Steps: []Step{st}}).Run(&b, nil)
			assert.ErrorIs(t, err, ErrRange)
			assert.Equal(t, "abc", b.String())
		})
	}
}

func TestRunAllOps(t *testing.T) {
	s := &Script{Steps: []Step{
		{Op: OpAppend, Data: "hello"},
		{Op: OpWrite, Pos: 4, Data: "o world"},
		{Op: OpExpand, Count: 2},
		{Op: OpShrink, Count: 2},
		{Op: OpRemove, Pos: 0, Count: 6},
		{Op: OpInsert, Pos: 0, Data: "<"},
		{Op: OpAppendFill, Fill: ">", Count: 1},
	}}
	var b dynbuf.DynBuf
	require.NoError(t, s.Run(&b, nil))
	assert.Equal(t, "<world>", b.String())

	require.NoError(t, (&Script{Steps: []Step{{Op: OpClear}}}).Run(&b, nil))
	assert.Equal(t, 0, b.Len())
}

func TestRunOutOfMemory(t *testing.T) {
	b := dynbuf.New(dynbuf.WithAllocator(pool.Limit(nil, 32)))
	s := &Script{Steps: []Step{
		{Op: OpAppend, Data: "ok"},
		{Op: OpAppendFill, Fill: "x", Count: 100},
		{Op: OpAppend, Data: "never"},
	}}
	calls := 0
	err := s.Run(b, func(int, Step, *dynbuf.DynBuf) { calls++ })
	assert.ErrorIs(t, err, dynbuf.ErrNoMemory)
	assert.Contains(t, err.Error(), "step 2")
	assert.Equal(t, 1, calls)
	assert.Equal(t, "ok", b.String())
}

func TestRunHugeExpand(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - op: append\n    data: ok\n  - op: expand\n    count: 268435455\n"))
	require.NoError(t, err)
	b := dynbuf.New(dynbuf.WithAllocator(pool.Limit(nil, 1024)))
	err = s.Run(b, nil)
	assert.ErrorIs(t, err, dynbuf.ErrNoMemory)
	assert.Equal(t, "ok", b.String())
}

func TestStepString(t *testing.T) {
	assert.Equal(t, `append "str"`, Step{Op: OpAppend, Data: "str"}.String())
	assert.Equal(t, `insert 3 x "b" at 0`, Step{Op: OpInsertFill, Fill: "b", Count: 3}.String())
	assert.Equal(t, "remove 4 at 2", Step{Op: OpRemove, Pos: 2, Count: 4}.String())
	assert.Equal(t, "clear", Step{Op: OpClear}.String())
}
