// Package script runs YAML lists of buffer edits against a DynBuf.
//
//	- op: append
//	  data: str
//	- op: insert_fill
//	  pos: 0
//	  fill: b
//	  count: 3
//
// Scripts are external input, so positions are checked against the live
// buffer and reported as errors rather than panics.
package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/fpemud/dynbuf"
)

// Op names an edit.
type Op string

const (
	OpAppend     Op = "append"
	OpAppendFill Op = "append_fill"
	OpInsert     Op = "insert"
	OpInsertFill Op = "insert_fill"
	OpWrite      Op = "write"
	OpWriteFill  Op = "write_fill"
	OpRemove     Op = "remove"
	OpExpand     Op = "expand"
	OpShrink     Op = "shrink"
	OpClear      Op = "clear"
)

// ErrRange is returned when a step addresses bytes outside the buffer.
var ErrRange = errors.New("script: out of range")

// Step is one edit.
type Step struct {
	Op    Op     `yaml:"op"`
	Pos   int    `yaml:"pos,omitempty"`
	Data  string `yaml:"data,omitempty"`
	Fill  string `yaml:"fill,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

func (s Step) String() string {
	switch s.Op {
	case OpAppend:
		return fmt.Sprintf("append %q", s.Data)
	case OpAppendFill:
		return fmt.Sprintf("append %d x %q", s.Count, s.Fill)
	case OpInsert, OpWrite:
		return fmt.Sprintf("%s %q at %d", s.Op, s.Data, s.Pos)
	case OpInsertFill, OpWriteFill:
		return fmt.Sprintf("%s %d x %q at %d", strings.TrimSuffix(string(s.Op), "_fill"), s.Count, s.Fill, s.Pos)
	case OpRemove:
		return fmt.Sprintf("remove %d at %d", s.Count, s.Pos)
	case OpExpand, OpShrink:
		return fmt.Sprintf("%s %d", s.Op, s.Count)
	default:
		return string(s.Op)
	}
}

// Script is an ordered list of steps.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Parse decodes and validates a script. Every invalid step is reported.
func Parse(data []byte) (*Script, error) {
	s := &Script{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("script: parse: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks each step in isolation.
func (s *Script) Validate() error {
	var result *multierror.Error
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	return result.ErrorOrNil()
}

func (s Step) validate() error {
	var result *multierror.Error
	fill := func() {
		if len(s.Fill) != 1 {
			result = multierror.Append(result, fmt.Errorf("%s: fill must be exactly one byte, got %q", s.Op, s.Fill))
		}
	}
	switch s.Op {
	case OpAppend, OpInsert, OpWrite, OpClear, OpRemove, OpExpand, OpShrink:
	case OpAppendFill, OpInsertFill, OpWriteFill:
		fill()
	case "":
		return errors.New("missing op")
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	if s.Pos < 0 {
		result = multierror.Append(result, fmt.Errorf("%s: negative pos %d", s.Op, s.Pos))
	}
	if s.Count < 0 {
		result = multierror.Append(result, fmt.Errorf("%s: negative count %d", s.Op, s.Count))
	}
	return result.ErrorOrNil()
}

// Observer is called after every successful step.
type Observer func(i int, st Step, b *dynbuf.DynBuf)

// Run applies the steps to b in order and stops at the first failure.
func (s *Script) Run(b *dynbuf.DynBuf, observe Observer) error {
	for i, st := range s.Steps {
		if err := st.Apply(b); err != nil {
			return fmt.Errorf("script: step %d (%s): %w", i+1, st, err)
		}
		if observe != nil {
			observe(i, st, b)
		}
	}
	return nil
}

func (s Step) checkPos(b *dynbuf.DynBuf) error {
	if s.Pos < 0 || s.Pos > b.Len() {
		return fmt.Errorf("position %d with length %d: %w", s.Pos, b.Len(), ErrRange)
	}
	return nil
}

// Apply performs one step on b.
func (s Step) Apply(b *dynbuf.DynBuf) error {
	if err := s.validate(); err != nil {
		return err
	}
	var c byte
	if len(s.Fill) == 1 {
		c = s.Fill[0]
	}
	switch s.Op {
	case OpAppend:
		return b.Append([]byte(s.Data))
	case OpAppendFill:
		return b.AppendFill(c, s.Count)
	case OpInsert:
		if err := s.checkPos(b); err != nil {
			return err
		}
		return b.Insert(s.Pos, []byte(s.Data))
	case OpInsertFill:
		if err := s.checkPos(b); err != nil {
			return err
		}
		return b.InsertFill(s.Pos, c, s.Count)
	case OpWrite:
		if err := s.checkPos(b); err != nil {
			return err
		}
		_, err := b.WriteAt([]byte(s.Data), int64(s.Pos))
		return err
	case OpWriteFill:
		if err := s.checkPos(b); err != nil {
			return err
		}
		return b.WriteFill(s.Pos, c, s.Count)
	case OpRemove:
		if err := s.checkPos(b); err != nil {
			return err
		}
		if s.Count > b.Len()-s.Pos {
			return fmt.Errorf("remove %d at %d with length %d: %w", s.Count, s.Pos, b.Len(), ErrRange)
		}
		b.Remove(s.Pos, s.Count)
	case OpExpand:
		return b.Expand(s.Count)
	case OpShrink:
		if s.Count > b.Len() {
			return fmt.Errorf("shrink %d with length %d: %w", s.Count, b.Len(), ErrRange)
		}
		b.Shrink(s.Count)
	case OpClear:
		b.Clear()
	}
	return nil
}

// Show renders b as "len: <n>\tptr: '<content>'".
func Show(b *dynbuf.DynBuf) string {
	return fmt.Sprintf("len: %d\tptr: '%s'", b.Len(), b.Bytes())
}
