package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# mouse support (TUI-mode only)
mouse: false
# write debug output to the log file
debug: false
# directory holding the message files (default: the user data directory)
# sounds: "~/nudge/sounds"

# pause between the messages of a sequence
speech:
  delay: "1s"

# Speech engine
tts:
  # auto, system, piper, gtts, mock or none
  engine: "auto"
  # engine to switch to after max_failures failed utterances
  fallback: "system"
  max_failures: 3
  # per-utterance limit
  timeout: "30s"

  # espeak-ng/espeak, say or PowerShell; empty picks one for this OS
  system:
    # binary: "espeak-ng"

  piper:
    binary: "piper"
    # model: "~/.local/share/piper/en_US-lessac-medium.onnx"
    # config_path: "~/.local/share/piper/en_US-lessac-medium.onnx.json"
    sample_rate: 22050

  gtts:
    binary: "gtts-cli"
    ffmpeg: "ffmpeg"
    language: "en"
    slow: false
    requests_per_minute: 50

  # synthesized audio is kept in memory and compressed on disk
  cache:
    enabled: true
    # dir: "~/.cache/nudge/speech"
    memory_mb: 16
    disk_mb: 128
    level: 3
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the nudge config file",
	Long:    paragraph(fmt.Sprintf("\n%s the nudge config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("nudge config\nnudge config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Nudge", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", configFile)
		return nil
	},
}

// ensureConfigFile writes the default configuration when configFile does
// not exist yet.
func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		return errors.New("no configuration file location")
	}

	if ext := filepath.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	exists, err := afero.Exists(fsys, configFile)
	if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	if exists {
		return nil
	}
	if err := fsys.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return fmt.Errorf("unable create directory: %w", err)
	}
	if err := afero.WriteFile(fsys, configFile, []byte(defaultConfig), 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	log.Debug("Wrote default configuration", "path", configFile)
	return nil
}
