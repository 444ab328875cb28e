package cli

import (
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/adapter/presenter"
	"github.com/YoshitsuguKoike/regwiz/internal/app/config"
	infraConfig "github.com/YoshitsuguKoike/regwiz/internal/infra/config"
	"github.com/YoshitsuguKoike/regwiz/internal/infra/logging"
	"github.com/YoshitsuguKoike/regwiz/internal/infrastructure/di"
	"github.com/YoshitsuguKoike/regwiz/internal/infrastructure/handoff"
	"github.com/YoshitsuguKoike/regwiz/internal/interface/cli/version"
)

// annotationNoContainer marks commands that run without loading configuration
const annotationNoContainer = "regwiz/no-container"

// Options are the process-level inputs of the command tree. Zero values
// select the real environment.
type Options struct {
	Out        io.Writer
	Err        io.Writer
	LoadConfig func(baseDir string) (config.Config, error)
	FS         afero.Fs
	HTTPClient *http.Client
	Prompter   Prompter
	KDFParams  *handoff.KDFParams
	Now        func() time.Time
}

// session is what every command sees once configuration is loaded
type session struct {
	opts Options

	home         string
	outputFormat string
	logLevel     string

	cfg       config.Config
	logger    *zap.Logger
	container *di.Container

	// presented is the last error already shown by the presenter
	presented error
	// banner repeats presented next to the prompts until it expires or is dismissed
	banner *presenter.Banner
}

func NewRoot() *cobra.Command {
	return NewRootWithOptions(Options{})
}

// NewRootWithOptions builds the command tree around opts
func NewRootWithOptions(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = func(baseDir string) (config.Config, error) {
			return infraConfig.LoadSettings(baseDir)
		}
	}
	if opts.Prompter == nil {
		opts.Prompter = &promptuiPrompter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &session{opts: opts}

	cmd := &cobra.Command{
		Use:          "regwiz",
		Short:        "Tenant registration wizard",
		Long:         "Register a new tenant step by step: customer, business, then plan and payment.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoContainer] == "true" {
				return nil
			}
			return s.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Err)

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.home, "home", "", "settings directory (default $REGWIZ_HOME or .regwiz)")
	flags.StringVarP(&s.outputFormat, "output", "o", "cli", "output format: cli or json")
	flags.StringVar(&s.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(newInitCmd(s))
	cmd.AddCommand(newPlansCmd(s))
	cmd.AddCommand(newStatusCmd(s))
	cmd.AddCommand(newSetCmd(s))
	cmd.AddCommand(newSelectPlanCmd(s))
	cmd.AddCommand(newNextCmd(s))
	cmd.AddCommand(newBackCmd(s))
	cmd.AddCommand(newSubmitCmd(s))
	cmd.AddCommand(newResetCmd(s))
	cmd.AddCommand(newRegisterCmd(s))
	cmd.AddCommand(newServeCmd(s))

	v := version.NewCommand()
	v.Annotations = map[string]string{annotationNoContainer: "true"}
	cmd.AddCommand(v)

	silencePresented(cmd, s)
	return cmd
}

// fail shows err through the presenter and returns it
func (s *session) fail(err error) error {
	s.presented = err
	s.banner = presenter.ErrorBanner(err, s.opts.Now())
	return s.container.GetPresenter().PresentError(err)
}

// promptLabel appends the current banner to label while it is visible
func (s *session) promptLabel(label string) string {
	if s.banner == nil || !s.banner.Visible(s.opts.Now()) {
		return label
	}
	return label + " [" + s.banner.Text() + "]"
}

func (s *session) dismissBanner() {
	if s.banner != nil {
		s.banner.Dismiss()
	}
}

// silencePresented stops cobra from printing errors the presenter already showed
func silencePresented(cmd *cobra.Command, s *session) {
	for _, c := range cmd.Commands() {
		silencePresented(c, s)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		err := run(c, args)
		if err != nil && s.presented != nil && errors.Is(err, s.presented) {
			c.SilenceErrors = true
		}
		return err
	}
}

// baseDir resolves where setting.yml lives
func (s *session) baseDir() string {
	if s.home != "" {
		return s.home
	}
	if home := os.Getenv("REGWIZ_HOME"); home != "" {
		return home
	}
	return ".regwiz"
}

// open loads configuration and builds the container
func (s *session) open() error {
	cfg, err := s.opts.LoadConfig(s.baseDir())
	if err != nil {
		return err
	}
	s.cfg = cfg

	level := cfg.LogLevel()
	if s.logLevel != "" {
		level = s.logLevel
	}
	s.logger = logging.New(level, cfg.LogFormat(), s.opts.Err)
	s.logger.Debug("configuration loaded",
		zap.String("source", cfg.ConfigSource()),
		zap.String("store", cfg.StoreBackend()),
	)

	container, err := di.NewContainer(di.Config{
		App:          cfg,
		OutputFormat: s.outputFormat,
		OutputWriter: s.opts.Out,
		Logger:       s.logger,
		FS:           s.opts.FS,
		HTTPClient:   s.opts.HTTPClient,
		KDFParams:    s.opts.KDFParams,
	})
	if err != nil {
		return err
	}
	s.container = container
	return nil
}

func (s *session) close() error {
	if s.container == nil {
		return nil
	}
	err := s.container.Close()
	s.container = nil
	return err
}
