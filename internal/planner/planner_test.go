package planner

import "testing"

func TestCodecMatches(t *testing.T) {
	cases := []struct {
		tag, want string
		match     bool
	}{
		{"vp8", "vp8", true},
		{"VP8", "vp8", true},
		{"hevc", "h265", true},
		{"h265", "h265", true},
		{"h264", "h265", false},
		{"aac", "aac", true},
		{"vorbis", "aac", false},
		{"mp3", "aac", false},
	}
	for _, c := range cases {
		if got := codecMatches(c.tag, c.want); got != c.match {
			t.Errorf("codecMatches(%q, %q) = %v, want %v", c.tag, c.want, got, c.match)
		}
	}
}

func TestFilePlan_NeedsProcessing(t *testing.T) {
	cases := []struct {
		name string
		plan FilePlan
		want bool
	}{
		{
			name: "already correct format",
			plan: FilePlan{
				Audio:    AudioPlan{Found: true, NeedsTranscode: false},
				Video:    VideoPlan{Found: true, NeedsTranscode: false},
				Subtitle: SubtitlePlan{Found: false},
			},
			want: false,
		},
		{
			name: "video needs transcode",
			plan: FilePlan{
				Video: VideoPlan{Found: true, NeedsTranscode: true},
			},
			want: true,
		},
		{
			name: "subtitle needs extraction only",
			plan: FilePlan{
				Subtitle: SubtitlePlan{Found: true, IsSRT: true, NeedsExtract: true},
			},
			want: true,
		},
		{
			name: "subtitle found but not srt",
			plan: FilePlan{
				Subtitle: SubtitlePlan{Found: true, IsSRT: false, NeedsExtract: false},
			},
			want: false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.plan.NeedsProcessing(); got != c.want {
				t.Errorf("NeedsProcessing() = %v, want %v", got, c.want)
			}
		})
	}
}
