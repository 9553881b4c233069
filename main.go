// Package main provides the entry point for the nudge interval timer.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nudge/internal/app"
	"github.com/dgnsrekt/nudge/internal/messages"
	"github.com/dgnsrekt/nudge/internal/settings"
	"github.com/dgnsrekt/nudge/internal/speech"
	"github.com/dgnsrekt/nudge/internal/timer"
	"github.com/dgnsrekt/nudge/tts"
	"github.com/dgnsrekt/nudge/ui"
	"github.com/dgnsrekt/nudge/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	mouse      bool
	debug      bool
	random     bool
	minDur     time.Duration
	maxDur     time.Duration
	duration   time.Duration
	ttsEngine  string
	soundsDir  string

	// Swapped in tests.
	fsys         afero.Fs = afero.NewOsFs()
	defaultPaths          = app.DefaultPaths
	isTerminal            = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

	errMinMax = errors.New("--min must not be longer than --max")

	rootCmd = &cobra.Command{
		Use:   "nudge",
		Short: "An interval timer that talks to you",
		Long: paragraph(
			fmt.Sprintf("\nCount down, then %s a few messages aloud. Fixed or random intervals, in your terminal.", keyword("speak")),
		),
		Example:          paragraph("nudge\nnudge --duration 25m\nnudge --random --min 5m --max 20m\nnudge run --headless --once"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(utils.ExpandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	mouse = viper.GetBool("mouse")
	debug = viper.GetBool("debug")
	soundsDir = viper.GetString("sounds")
	ttsEngine = viper.GetString("tts.engine")

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if minDur < 0 || maxDur < 0 || duration < 0 {
		return errors.New("durations must not be negative")
	}
	if minDur > 0 && maxDur > 0 && minDur > maxDur {
		return fmt.Errorf("%w: %s > %s", errMinMax, minDur, maxDur)
	}

	if ttsEngine != "" && !slices.Contains(tts.Engines(), ttsEngine) {
		return fmt.Errorf("TTS validation failed: unknown engine %q, use one of %s", ttsEngine, strings.Join(tts.Engines(), ", "))
	}
	return nil
}

// overrides collects the session-only timer flags.
func overrides() app.Overrides {
	return app.Overrides{
		Duration: duration,
		Random:   random,
		Min:      minDur,
		Max:      maxDur,
	}
}

// paths resolves the data locations, honoring --sounds.
func paths() (app.Paths, error) {
	p, err := defaultPaths()
	if err != nil {
		return app.Paths{}, err
	}
	if soundsDir != "" {
		p.Sounds = utils.ExpandPath(soundsDir)
	}
	return p, nil
}

// ttsConfig reads the tts section of the config file.
func ttsConfig() (tts.Config, error) {
	cfg, err := tts.LoadConfigFromViper(viper.GetViper())
	if err != nil {
		return cfg, err
	}
	cfg.Piper.Binary = utils.ExpandPath(cfg.Piper.Binary)
	cfg.Piper.Model = utils.ExpandPath(cfg.Piper.Model)
	cfg.Piper.ConfigPath = utils.ExpandPath(cfg.Piper.ConfigPath)
	cfg.Cache.Dir = utils.ExpandPath(cfg.Cache.Dir)
	return cfg, nil
}

// newApp builds the application context shared by the TUI and the commands
// that need speech or the countdown.
func newApp(sched timer.Scheduler) (*app.App, error) {
	cfg, err := ttsConfig()
	if err != nil {
		return nil, err
	}
	p, err := paths()
	if err != nil {
		return nil, err
	}
	a, err := app.New(app.Options{
		Fs:        fsys,
		Paths:     p,
		TTS:       cfg,
		Overrides: overrides(),
		Scheduler: sched,
		Delay:     viper.GetDuration("speech.delay"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to start: %w", err)
	}
	return a, nil
}

// openCatalog loads the message files without starting a speech engine.
func openCatalog() (*messages.Catalog, app.Paths, error) {
	p, err := paths()
	if err != nil {
		return nil, p, err
	}
	if err := messages.Seed(fsys, p.Sounds, p.Archive); err != nil {
		log.Warn("Could not write example messages", "error", err)
	}
	c := messages.NewCatalog(fsys, p.Sounds)
	c.Load()
	return c, p, nil
}

// openSettings loads the settings store without starting a speech engine.
func openSettings() (*settings.Store, error) {
	p, err := paths()
	if err != nil {
		return nil, err
	}
	st := settings.NewStore(fsys, p.Settings)
	if err := st.Load(); err != nil {
		log.Warn("Using default settings", "path", p.Settings, "error", err)
	}
	return st, nil
}

func execute(cmd *cobra.Command, _ []string) error {
	if !isTerminal() {
		log.Info("stdout is not a terminal, running headless")
		return runHeadless(cmd.Context(), cmd.OutOrStdout(), false)
	}
	return runTUI()
}

func runTUI() error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.EnableMouse = mouse

	sched := ui.NewScheduler()
	a, err := newApp(sched)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, a, sched).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.BoolVar(&random, "random", false, "use a random interval between --min and --max")
	flags.DurationVar(&minDur, "min", 0, "shortest random interval, e.g. 5m")
	flags.DurationVar(&maxDur, "max", 0, "longest random interval, e.g. 20m")
	flags.DurationVarP(&duration, "duration", "d", 0, "fixed interval for this session, e.g. 25m")
	flags.StringVar(&ttsEngine, "tts", "", fmt.Sprintf("speech engine (%s)", strings.Join(tts.Engines(), "/")))
	flags.StringVar(&soundsDir, "sounds", "", "directory holding the message files")
	flags.BoolVar(&debug, "debug", false, "write debug output to the log file")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("sounds", flags.Lookup("sounds"))
	_ = viper.BindPFlag("tts.engine", flags.Lookup("tts"))

	viper.SetDefault("mouse", false)
	viper.SetDefault("debug", false)
	viper.SetDefault("sounds", "")
	viper.SetDefault("speech.delay", speech.DefaultDelay.String())
	tts.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, runCmd, speakCmd, messagesCmd, settingsCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, app.Name)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, app.Name)}, dirs...)
	}

	if c := os.Getenv("NUDGE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(app.Name)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(app.Name)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	configFile = filepath.Join(dirs[0], app.Name+".yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
