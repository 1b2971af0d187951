// Package subtitle writes embedded subtitle packets out as an SRT sidecar
// file, per SPEC_FULL.md §4.6. The writer accumulates cues as plain ASCII
// text and only transcodes the whole file to UCS-2 little endian with a
// byte-order mark on Close, matching the on-disk contract in §6.
package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"unicode/utf16"

	"github.com/asticode/goav/avutil"
	"github.com/pkg/errors"

	"github.com/castmux/transcoder/internal/avlib"
)

// Writer accumulates SRT cues for one subtitle track and rewrites the file
// as UCS-2LE with a BOM when Close is called.
type Writer struct {
	path     string
	tmp      *os.File
	buf      *bufio.Writer
	cue      int
	startDTS int64
	haveDTS  bool
	closed   bool
}

// New creates the sidecar file at path (plain-text staging; see Close for
// the final UCS-2 rewrite) or returns ErrIoOpen.
func New(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(avlib.ErrIoOpen, "create %q: %v", path, err)
	}
	return &Writer{path: path, tmp: f, buf: bufio.NewWriter(f)}, nil
}

// WritePacket appends one cue derived from a demuxed subtitle packet.
// Packets with zero payload size are ignored (§4.6 only processes non-zero
// packets).
func (w *Writer) WritePacket(pts int64, durationTicks int64, tb avutil.Rational, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if !w.haveDTS {
		w.startDTS = pts
		w.haveDTS = true
	}

	startPts := pts
	if w.startDTS != 0 {
		startPts = pts - w.startDTS
	}
	startMs := rescaleToMillis(startPts, tb)
	endMs := startMs
	if durationTicks > 0 {
		endMs = rescaleToMillis(startPts+durationTicks, tb)
	}

	w.cue++
	if _, err := fmt.Fprintf(w.buf, "%d\n", w.cue); err != nil {
		return errors.Wrap(avlib.ErrIoWrite, err.Error())
	}
	if _, err := fmt.Fprintf(w.buf, "%s --> %s\n", formatTimecode(startMs), formatTimecode(endMs)); err != nil {
		return errors.Wrap(avlib.ErrIoWrite, err.Error())
	}
	if _, err := w.buf.Write(payload); err != nil {
		return errors.Wrap(avlib.ErrIoWrite, err.Error())
	}
	if _, err := w.buf.WriteString("\n\n"); err != nil {
		return errors.Wrap(avlib.ErrIoWrite, err.Error())
	}
	return nil
}

// rescaleToMillis implements ms = 1000 * pts * tb.num / tb.den from §4.6.
func rescaleToMillis(pts int64, tb avutil.Rational) int64 {
	if tb.Den() == 0 {
		return 0
	}
	return 1000 * pts * int64(tb.Num()) / int64(tb.Den())
}

// formatTimecode renders milliseconds since zero as HH:MM:SS,mmm.
func formatTimecode(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	ms %= 3600000
	minutes := ms / 60000
	ms %= 60000
	seconds := ms / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// Close flushes buffered cues and rewrites the staged plain-text file in
// place as UCS-2 little endian with a leading BOM (FF FE). Idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		w.tmp.Close()
		return errors.Wrap(avlib.ErrIoWrite, err.Error())
	}
	if err := w.tmp.Close(); err != nil {
		return errors.Wrap(avlib.ErrIoWrite, err.Error())
	}

	if err := rewriteAsUCS2LE(w.path); err != nil {
		return errors.Wrap(avlib.ErrIoWrite, err.Error())
	}
	return nil
}

// Abort discards the staging file without performing the UCS-2 rewrite,
// used by post-run cleanup (§4.9) when the job is cancelled or fails before
// the subtitle track is complete.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.tmp.Close()
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(avlib.ErrIoRemove, "remove %q: %v", w.path, err)
	}
	return nil
}

// Path returns the sidecar path this writer was created for.
func (w *Writer) Path() string { return w.path }

// rewriteAsUCS2LE reads path's staged ASCII/UTF-8 text, re-encodes every
// rune as UCS-2 little endian, and writes it back with a leading BOM.
func rewriteAsUCS2LE(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	units := utf16.Encode([]rune(string(raw)))
	out := make([]byte, 2+2*len(units))
	out[0], out[1] = 0xFF, 0xFE
	for i, u := range units {
		out[2+2*i] = byte(u)
		out[2+2*i+1] = byte(u >> 8)
	}
	return os.WriteFile(path, out, 0o644)
}
