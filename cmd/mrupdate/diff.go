package main

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/diff/ctxt"
	"github.com/pkg/diff/myers"
	"github.com/pkg/diff/write"
)

// lines is a myers.Pair and write.Pair over two line slices.
type lines struct {
	a, b [][]byte
}

func (ab *lines) LenA() int                                { return len(ab.a) }
func (ab *lines) LenB() int                                { return len(ab.b) }
func (ab *lines) Equal(ai, bi int) bool                    { return bytes.Equal(ab.a[ai], ab.b[bi]) }
func (ab *lines) WriteATo(w io.Writer, i int) (int, error) { return w.Write(ab.a[i]) }
func (ab *lines) WriteBTo(w io.Writer, i int) (int, error) { return w.Write(ab.b[i]) }

func splitLines(b []byte) [][]byte {
	return bytes.Split(bytes.TrimSuffix(b, []byte("\n")), []byte("\n"))
}

// writeDiff writes a unified diff from a to b, both named name. A
// negative contextSize keeps every line.
func writeDiff(ctx context.Context, w io.Writer, name string, a, b []byte, contextSize int, color bool) error {
	if bytes.Equal(a, b) {
		return nil
	}
	opts := []write.Option{write.Names("a/"+name, "b/"+name)}
	if color {
		opts = append(opts, write.TerminalColor())
	}
	ab := &lines{a: splitLines(a), b: splitLines(b)}
	e := myers.Diff(ctx, ab)
	if contextSize >= 0 {
		e = ctxt.Size(e, contextSize)
	}
	return write.Unified(e, w, ab, opts...)
}
