package config

import "testing"

func TestValidate_CodecPair(t *testing.T) {
	tests := []struct {
		name    string
		video   VideoCodec
		audio   AudioCodec
		wantErr bool
	}{
		{"vp8+vorbis is valid", VideoVP8, AudioVorbis, false},
		{"vp9+vorbis is valid", VideoVP9, AudioVorbis, false},
		{"h264+aac is valid", VideoH264, AudioAAC, false},
		{"h265+aac is valid", VideoH265, AudioAAC, false},
		{"vp8+aac is invalid", VideoVP8, AudioAAC, true},
		{"h264+vorbis is invalid", VideoH264, AudioVorbis, true},
		{"unknown video codec is invalid", VideoCodec("av1"), AudioAAC, true},
		{"unknown audio codec is invalid", VideoH264, AudioCodec("mp3"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.RootDirectory = "/in"
			cfg.OutputDir = "/out"
			cfg.VideoCodec = tt.video
			cfg.AudioCodec = tt.audio
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AudioChannelsRange(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		wantErr  bool
	}{
		{"minimum valid", 2, false},
		{"maximum valid", 7, false},
		{"mono is invalid", 1, true},
		{"too many channels", 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AudioChannelsNum = tt.channels
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ThreadsOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumberOfThreads = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject zero threads")
	}

	cfg.NumberOfThreads = 1_000_000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject a thread count above hardware concurrency")
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		wantErr bool
	}{
		{"separate directories", "/media/in", "/media/out", false},
		{"output equals input", "/media/lib", "/media/lib", true},
		{"output inside input", "/media/lib", "/media/lib/output", true},
		{"output is parent of input", "/media/lib/sub", "/media/lib", false},
		{"similar prefix not nested", "/media/library", "/media/library2", false},
		{"empty output is not validated", "/media/lib", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ValidatePaths(tt.input, tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths(%q, %q) error = %v, wantErr %v", tt.input, tt.output, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.VideoCodec != VideoVP8 {
		t.Errorf("default VideoCodec = %q, want %q", cfg.VideoCodec, VideoVP8)
	}
	if cfg.AudioCodec != AudioVorbis {
		t.Errorf("default AudioCodec = %q, want %q", cfg.AudioCodec, AudioVorbis)
	}
	if cfg.AudioChannelsNum != 2 {
		t.Errorf("default AudioChannelsNum = %d, want 2", cfg.AudioChannelsNum)
	}
	if !cfg.ExtractSubtitles {
		t.Error("default ExtractSubtitles should be true")
	}
	if !cfg.ForceMonotonicVideoTimestamps {
		t.Error("default ForceMonotonicVideoTimestamps should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should validate cleanly, got: %v", err)
	}
}

func TestLanguage_isoCode(t *testing.T) {
	tests := []struct {
		lang Language
		want string
	}{
		{LangDefault, ""},
		{LangEnglish, "eng"},
		{LangSpanish, "spa"},
	}
	for _, tt := range tests {
		if got := tt.lang.isoCode(); got != tt.want {
			t.Errorf("%v.isoCode() = %q, want %q", tt.lang, got, tt.want)
		}
	}
}
