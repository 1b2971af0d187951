package subtitle

import (
	"os"
	"testing"

	"github.com/asticode/goav/avutil"
)

func ratOf(num, den int) avutil.Rational {
	return avutil.NewRational(num, den)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return raw
}

func TestFormatTimecode(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00,000"},
		{1500, "00:00:01,500"},
		{61000, "00:01:01,000"},
		{3661234, "01:01:01,234"},
		{-5, "00:00:00,000"},
	}
	for _, c := range cases {
		if got := formatTimecode(c.ms); got != c.want {
			t.Errorf("formatTimecode(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}

func TestWriter_WritePacket_SkipsEmptyPayload(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir + "/out.srt")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.WritePacket(0, 0, ratOf(1, 1000), nil); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if w.cue != 0 {
		t.Errorf("cue counter advanced on empty payload: %d", w.cue)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
}

func TestWriter_CueNumberingAndClose(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.srt"
	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tb := ratOf(1, 1000)
	if err := w.WritePacket(0, 500, tb, []byte("hello")); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if err := w.WritePacket(500, 500, tb, []byte("world")); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if w.cue != 2 {
		t.Fatalf("cue = %d, want 2", w.cue)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw := readFile(t, path)
	if len(raw) < 2 || raw[0] != 0xFF || raw[1] != 0xFE {
		t.Fatalf("missing UCS-2LE BOM, got first bytes %v", raw[:min(2, len(raw))])
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
