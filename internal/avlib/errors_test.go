package avlib

import "testing"

func TestVerbResult(t *testing.T) {
	cases := []struct {
		name string
		code int
		want VerbResult
	}{
		{"success", 0, Ok},
		{"positive bytes written", 4096, Ok},
		{"eagain", averrorEAGAIN, Again},
		{"eof", averrorEOF, Eof},
		{"other negative", -5, Fatal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := verbResult(c.code)
			if got != c.want {
				t.Errorf("verbResult(%d) = %v, want %v", c.code, got, c.want)
			}
		})
	}
}

func TestVerbResult_FatalCarriesRawCode(t *testing.T) {
	_, raw := verbResult(-22)
	if raw != -22 {
		t.Errorf("verbResult fatal raw code = %d, want -22", raw)
	}
}
