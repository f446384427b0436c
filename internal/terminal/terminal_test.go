package terminal

import (
	"errors"
	"testing"
)

func TestInfoCapabilities(t *testing.T) {
	tests := []struct {
		name        string
		info        Info
		color       bool
		interactive bool
		jobControl  bool
	}{
		{name: "full tty", info: Info{IsTTY: true, StdinIsTTY: true}, color: true, interactive: true, jobControl: true},
		{name: "piped stdout", info: Info{StdinIsTTY: true}, color: false, interactive: false, jobControl: true},
		{name: "no color", info: Info{IsTTY: true, StdinIsTTY: true, NoColor: true}, color: false, interactive: true, jobControl: true},
		{name: "forced off", info: Info{IsTTY: true, ForceFlag: true}, color: false, interactive: false, jobControl: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.ColorEnabled(); got != tt.color {
				t.Errorf("ColorEnabled() = %v, want %v", got, tt.color)
			}

			if got := tt.info.InteractiveEnabled(); got != tt.interactive {
				t.Errorf("InteractiveEnabled() = %v, want %v", got, tt.interactive)
			}

			if got := tt.info.JobControlEnabled(); got != tt.jobControl {
				t.Errorf("JobControlEnabled() = %v, want %v", got, tt.jobControl)
			}
		})
	}
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if info := Detect(); !info.NoColor {
		t.Error("Detect().NoColor = false with NO_COLOR set")
	}
}

func fakeProbe(ttys map[int]bool, env map[string]string, width, height int) probe {
	return probe{
		isTerminal: func(fd int) bool { return ttys[fd] },
		size: func(int) (int, int, error) {
			if width == 0 {
				return 0, 0, errors.New("no size")
			}

			return width, height, nil
		},
		lookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}

func TestProbeDetect(t *testing.T) {
	const stdin, stdout = 0, 1

	tests := []struct {
		name string
		p    probe
		want Info
	}{
		{
			name: "interactive terminal",
			p:    fakeProbe(map[int]bool{stdin: true, stdout: true}, nil, 132, 50),
			want: Info{IsTTY: true, StdinIsTTY: true, Width: 132, Height: 50},
		},
		{
			name: "size unavailable",
			p:    fakeProbe(map[int]bool{stdin: true, stdout: true}, nil, 0, 0),
			want: Info{IsTTY: true, StdinIsTTY: true, Width: 80, Height: 24},
		},
		{
			name: "piped output keeps default size",
			p:    fakeProbe(map[int]bool{stdin: true}, nil, 200, 60),
			want: Info{StdinIsTTY: true, Width: 80, Height: 24},
		},
		{
			name: "empty NO_COLOR still disables color",
			p:    fakeProbe(map[int]bool{stdout: true}, map[string]string{"NO_COLOR": ""}, 100, 30),
			want: Info{IsTTY: true, NoColor: true, Width: 100, Height: 30},
		},
		{
			name: "dumb terminal",
			p:    fakeProbe(map[int]bool{stdout: true}, map[string]string{"TERM": "dumb"}, 100, 30),
			want: Info{IsTTY: true, NoColor: true, Width: 100, Height: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.detect(stdin, stdout); *got != tt.want {
				t.Errorf("detect() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
