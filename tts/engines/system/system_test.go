package system

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/dgnsrekt/nudge/tts"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		binary string
		want   Kind
	}{
		{"/usr/bin/espeak-ng", KindEspeak},
		{"espeak", KindEspeak},
		{"/usr/bin/say", KindSay},
		{`C:\Windows\powershell.exe`, KindPowerShell},
		{"pwsh", KindPowerShell},
		{"festival", KindNone},
	}
	for _, tt := range tests {
		if got := KindOf(tt.binary); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.binary, got, tt.want)
		}
	}
}

func TestCommandEspeak(t *testing.T) {
	args, stdin := Command(KindEspeak, "hello", tts.Options{Voice: "en-us", Rate: 1, Pitch: 1, Volume: 0.5})
	want := []string{"-s", "175", "-p", "50", "-a", "100", "-v", "en-us", "--stdin"}
	if !slices.Equal(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
	if string(stdin) != "hello" {
		t.Errorf("stdin = %q, want hello", stdin)
	}
}

func TestCommandEspeakPitchCapped(t *testing.T) {
	args, _ := Command(KindEspeak, "x", tts.Options{Rate: 2, Pitch: 2, Volume: 1})
	if args[1] != "350" || args[3] != "99" || args[5] != "200" {
		t.Errorf("args = %v", args)
	}
}

func TestCommandSay(t *testing.T) {
	args, stdin := Command(KindSay, "hello", tts.Options{Voice: "Alex", Rate: 1, Volume: 0.25})
	if !slices.Equal(args, []string{"-r", "175", "-v", "Alex"}) {
		t.Errorf("args = %v", args)
	}
	if string(stdin) != "[[volm 0.25]] hello" {
		t.Errorf("stdin = %q", stdin)
	}
}

func TestCommandPowerShell(t *testing.T) {
	args, stdin := Command(KindPowerShell, "hi", tts.Options{Voice: "Zira's", Rate: 2, Volume: 1})
	script := args[len(args)-1]
	for _, want := range []string{"$s.Rate = 10", "$s.Volume = 100", "SelectVoice('Zira''s')"} {
		if !strings.Contains(script, want) {
			t.Errorf("script %q missing %q", script, want)
		}
	}
	if string(stdin) != "hi" {
		t.Errorf("stdin = %q, want hi", stdin)
	}
}

func TestParseVoices(t *testing.T) {
	espeak := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`
	say := `Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp.
`
	sapi := "Microsoft David Desktop|en-US\nMicrosoft Zira Desktop|en-US\n"

	tests := []struct {
		name string
		kind Kind
		out  string
		want []tts.Voice
	}{
		{"espeak", KindEspeak, espeak, []tts.Voice{
			{ID: "af", Name: "Afrikaans", Language: "af"},
			{ID: "en-us", Name: "English (America)", Language: "en-us"},
		}},
		{"say", KindSay, say, []tts.Voice{
			{ID: "Alex", Name: "Alex", Language: "en_US"},
			{ID: "Bad News", Name: "Bad News", Language: "en_US"},
		}},
		{"sapi", KindPowerShell, sapi, []tts.Voice{
			{ID: "Microsoft David Desktop", Name: "Microsoft David Desktop", Language: "en-US"},
			{ID: "Microsoft Zira Desktop", Name: "Microsoft Zira Desktop", Language: "en-US"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVoices(tt.kind, tt.out)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseVoices() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSpeakRunsCommand(t *testing.T) {
	var gotName string
	var gotStdin []byte
	run := func(_ context.Context, stdin []byte, name string, _ ...string) ([]byte, error) {
		gotName, gotStdin = name, stdin
		return nil, nil
	}
	e := NewWithRunner("espeak-ng", KindEspeak, run)
	if err := e.Speak(context.Background(), "  go  ", tts.DefaultOptions()); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if gotName != "espeak-ng" || string(gotStdin) != "go" {
		t.Errorf("ran %q with stdin %q", gotName, gotStdin)
	}
}

func TestSpeakErrors(t *testing.T) {
	fail := func(context.Context, []byte, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	e := NewWithRunner("espeak-ng", KindEspeak, fail)

	if err := e.Speak(context.Background(), " ", tts.DefaultOptions()); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("Speak(blank) error = %v, want ErrEmptyText", err)
	}
	err := e.Speak(context.Background(), "x", tts.DefaultOptions())
	var se *tts.SpeechError
	if !errors.As(err, &se) || !errors.Is(err, tts.ErrGenerationFailed) {
		t.Errorf("Speak() error = %v, want SpeechError wrapping ErrGenerationFailed", err)
	}

	none := NewWithRunner("", KindNone, fail)
	if err := none.Speak(context.Background(), "x", tts.DefaultOptions()); !errors.Is(err, tts.ErrEngineNotAvailable) {
		t.Errorf("Speak() without command error = %v, want ErrEngineNotAvailable", err)
	}
}
