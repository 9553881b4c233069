// Package system speaks through the platform's own speech command: espeak-ng
// or espeak on Linux, say on macOS and System.Speech through PowerShell on
// Windows. These commands play the audio themselves.
package system

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/proc"
	"github.com/dgnsrekt/nudge/tts"
)

// Kind is the family of speech command.
type Kind int

// Supported speech commands.
const (
	KindNone Kind = iota
	KindEspeak
	KindSay
	KindPowerShell
)

func (k Kind) String() string {
	switch k {
	case KindEspeak:
		return "espeak"
	case KindSay:
		return "say"
	case KindPowerShell:
		return "powershell"
	}
	return "none"
}

// Runner executes a command with stdin and returns its stdout.
type Runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// Engine implements tts.Engine on top of a speech command.
type Engine struct {
	binary string
	kind   Kind
	run    Runner
}

// New detects the speech command for this platform. binary overrides the
// detection; its kind is inferred from the file name.
func New(cfg tts.SystemConfig) *Engine {
	e := &Engine{run: proc.Output}
	if cfg.Binary != "" {
		e.binary = cfg.Binary
		e.kind = KindOf(cfg.Binary)
		return e
	}
	e.binary, e.kind = detect(runtime.GOOS)
	return e
}

// NewWithRunner returns an engine for a known binary and kind that runs
// commands through run.
func NewWithRunner(binary string, kind Kind, run Runner) *Engine {
	return &Engine{binary: binary, kind: kind, run: run}
}

func detect(goos string) (string, Kind) {
	var candidates []string
	switch goos {
	case "darwin":
		candidates = []string{"say"}
	case "windows":
		candidates = []string{"powershell", "pwsh"}
	default:
		candidates = []string{"espeak-ng", "espeak"}
	}
	if p, ok := proc.First(candidates...); ok {
		return p, KindOf(p)
	}
	return "", KindNone
}

// KindOf infers the command family from a binary path.
func KindOf(binary string) Kind {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(binary), filepath.Ext(binary)))
	switch base {
	case "espeak", "espeak-ng":
		return KindEspeak
	case "say":
		return KindSay
	case "powershell", "pwsh":
		return KindPowerShell
	}
	return KindNone
}

// Name implements tts.Engine.
func (e *Engine) Name() string {
	return tts.EngineSystem
}

// Kind returns the detected command family.
func (e *Engine) Kind() Kind {
	return e.kind
}

// Available implements tts.Engine.
func (e *Engine) Available() bool {
	return e.kind != KindNone && e.binary != "" && proc.Available(e.binary)
}

// Speak implements tts.Engine.
func (e *Engine) Speak(ctx context.Context, text string, opts tts.Options) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return tts.ErrEmptyText
	}
	if e.kind == KindNone {
		return tts.NewSpeechError(tts.ErrEngineNotAvailable, tts.EngineSystem, "speak")
	}
	opts = opts.Normalized()

	args, stdin := Command(e.kind, text, opts)
	log.Debug("system speech", "cmd", e.binary, "args", args)
	if _, err := e.run(ctx, stdin, e.binary, args...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, proc.ErrNotFound) {
			return tts.NewSpeechError(fmt.Errorf("%w: %v", tts.ErrEngineNotAvailable, err), tts.EngineSystem, "speak")
		}
		return tts.NewSpeechError(fmt.Errorf("%w: %v", tts.ErrGenerationFailed, err), tts.EngineSystem, "speak")
	}
	return nil
}

// Command returns the arguments and stdin that speak text with opts.
func Command(kind Kind, text string, opts tts.Options) ([]string, []byte) {
	switch kind {
	case KindEspeak:
		args := []string{
			"-s", strconv.Itoa(int(opts.Rate * 175)),
			"-p", strconv.Itoa(min(int(opts.Pitch*50), 99)),
			"-a", strconv.Itoa(int(opts.Volume * 200)),
		}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		return append(args, "--stdin"), []byte(text)

	case KindSay:
		args := []string{"-r", strconv.Itoa(int(opts.Rate * 175))}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		// say reads stdin when no text argument is given; volume is an
		// embedded command.
		return args, []byte(fmt.Sprintf("[[volm %.2f]] %s", opts.Volume, text))

	case KindPowerShell:
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Speech; "+
				"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; "+
				"$s.Rate = %d; $s.Volume = %d; %s"+
				"$s.Speak([Console]::In.ReadToEnd())",
			sapiRate(opts.Rate), int(opts.Volume*100), selectVoice(opts.Voice))
		return []string{"-NoProfile", "-NonInteractive", "-Command", script}, []byte(text)
	}
	return nil, nil
}

// sapiRate maps a rate multiplier onto System.Speech's -10..10 scale.
func sapiRate(rate float64) int {
	return min(max(int((rate-1)*10), -10), 10)
}

func selectVoice(voice string) string {
	if voice == "" {
		return ""
	}
	return fmt.Sprintf("$s.SelectVoice('%s'); ", strings.ReplaceAll(voice, "'", "''"))
}

const listVoicesScript = "Add-Type -AssemblyName System.Speech; " +
	"(New-Object System.Speech.Synthesis.SpeechSynthesizer).GetInstalledVoices() | " +
	"ForEach-Object { $_.VoiceInfo.Name + '|' + $_.VoiceInfo.Culture.Name }"

// Voices implements tts.Engine.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	var (
		out []byte
		err error
	)
	switch e.kind {
	case KindEspeak:
		out, err = e.run(ctx, nil, e.binary, "--voices")
	case KindSay:
		out, err = e.run(ctx, nil, e.binary, "-v", "?")
	case KindPowerShell:
		out, err = e.run(ctx, nil, e.binary, "-NoProfile", "-NonInteractive", "-Command", listVoicesScript)
	default:
		return nil, tts.ErrEngineNotAvailable
	}
	if err != nil {
		return nil, tts.NewSpeechError(err, tts.EngineSystem, "list voices")
	}
	return ParseVoices(e.kind, string(out)), nil
}

// ParseVoices parses the voice listing of a speech command.
func ParseVoices(kind Kind, out string) []tts.Voice {
	var voices []tts.Voice
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var (
			v  tts.Voice
			ok bool
		)
		switch kind {
		case KindEspeak:
			v, ok = parseEspeakVoice(line)
		case KindSay:
			v, ok = parseSayVoice(line)
		case KindPowerShell:
			v, ok = parseSAPIVoice(line)
		}
		if ok {
			voices = append(voices, v)
		}
	}
	return voices
}

// parseEspeakVoice parses a row of `espeak --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 3)
func parseEspeakVoice(line string) (tts.Voice, bool) {
	f := strings.Fields(line)
	if len(f) < 4 || f[0] == "Pty" {
		return tts.Voice{}, false
	}
	return tts.Voice{
		ID:       f[1],
		Name:     strings.ReplaceAll(f[3], "_", " "),
		Language: f[1],
	}, true
}

// parseSayVoice parses a row of `say -v ?`:
//
//	Bad News            en_US    # The light you see at the end of the tunnel...
func parseSayVoice(line string) (tts.Voice, bool) {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	f := strings.Fields(line)
	if len(f) < 2 {
		return tts.Voice{}, false
	}
	name := strings.Join(f[:len(f)-1], " ")
	return tts.Voice{ID: name, Name: name, Language: f[len(f)-1]}, true
}

func parseSAPIVoice(line string) (tts.Voice, bool) {
	name, culture, ok := strings.Cut(line, "|")
	if !ok || name == "" {
		return tts.Voice{}, false
	}
	return tts.Voice{ID: name, Name: name, Language: culture}, true
}
