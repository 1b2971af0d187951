package filtergraph

import (
	"testing"

	"github.com/castmux/transcoder/internal/avlib"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		code int
		want avlib.VerbResult
	}{
		{"success", 0, avlib.Ok},
		{"eagain", -11, avlib.Again},
		{"eof", -541478725, avlib.Eof},
		{"other negative", -22, avlib.Fatal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := classify(c.code)
			if got != c.want {
				t.Errorf("classify(%d) = %v, want %v", c.code, got, c.want)
			}
		})
	}
}
