package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var tests = []struct {
		name      string
		level     Level
		log       func()
		wantLabel string
		wantEmpty bool
	}{
		{"info passes at LevelInfo", LevelInfo, func() { Info("hello %s", "world") }, infoLabel, false},
		{"debug suppressed at LevelInfo", LevelInfo, func() { Debug("hello") }, debugLabel, true},
		{"warn suppressed at LevelSilent minus one", LevelError, func() { Warn("hello") }, warnLabel, true},
		{"error passes at LevelError", LevelError, func() { Error("hello") }, errorLabel, false},
		{"everything suppressed at LevelSilent", LevelSilent, func() { Error("hello") }, errorLabel, true},
	}

	defer SetLevel(LevelInfo)
	defer SetOutput(os.Stderr)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			SetOutput(buf)
			SetLevel(tt.level)

			tt.log()

			got := buf.String()
			if tt.wantEmpty && got != "" {
				t.Errorf("\ngot %q, wanted empty output", got)
			}
			if !tt.wantEmpty && !strings.Contains(got, tt.wantLabel) {
				t.Errorf("\ngot %q, wanted it to contain label %q", got, tt.wantLabel)
			}
		})
	}
}
