package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kk-code-lab/rpager"
	"github.com/kk-code-lab/rpager/internal/config"
	"github.com/kk-code-lab/rpager/internal/fs"
	"github.com/kk-code-lab/rpager/internal/logging"
	"github.com/kk-code-lab/rpager/internal/ui/terminal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var stdinIsTerminal = func() bool { return terminal.IsTerminal(os.Stdin) }

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "rpage [FILE...]",
		Short: "Terminal pager",
		Long: `rpage shows files or standard input one screen at a time.

Keys: q quit, j/k scroll, space/b page, g/G top/bottom, / and ? search,
n/N next/previous match, Ctrl+L toggle line numbers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/rpage/config.yaml)")

	local := cmd.Flags()
	local.StringP("line-numbers", "N", "", "line numbers: off, on, always-off, always-on")
	local.String("prompt", "", "text shown in the status bar")
	local.String("exit-strategy", "", "what quitting does: pager or process")
	local.BoolP("quit-if-one-screen", "F", false, "print short input without paging")
	local.BoolP("follow", "f", false, "keep reading as the file grows")
	local.String("engine", "", "search engine: re2 or pcre")
	local.Bool("smart-case", false, "lowercase searches ignore case")
	local.String("log-file", "", "write debug logs to this file")
	local.String("log-level", "", "log level: DEBUG, INFO, WARN, ERROR")

	for key, flag := range map[string]string{
		"pager.line_numbers":       "line-numbers",
		"pager.prompt":             "prompt",
		"pager.exit_strategy":      "exit-strategy",
		"pager.quit_if_one_screen": "quit-if-one-screen",
		"pager.follow":             "follow",
		"search.engine":            "engine",
		"search.smart_case":        "smart-case",
		"logging.file":             "log-file",
		"logging.level":            "log-level",
	} {
		_ = v.BindPFlag(key, local.Lookup(flag))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the rpage version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rpage", version)
		},
	})
	return cmd
}

func run(ctx context.Context, cfg config.Config, args []string) error {
	logger, closer, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = closer.Close()
	}()

	if len(args) == 0 {
		if stdinIsTerminal() {
			return errors.New("missing filename (\"rpage --help\" for help)")
		}
		args = []string{"-"}
	}
	if cfg.Pager.Follow && (len(args) != 1 || args[0] == "-") {
		return errors.New("--follow needs exactly one file")
	}

	doc, err := readDocuments(args)
	if err != nil {
		return err
	}
	text := doc.Text

	compiler, _ := cfg.Compiler()
	lineNumbers, _ := cfg.LineNumbers()
	exitStrategy, _ := cfg.ExitStrategy()

	p := rpager.NewStatic(rpager.WithLogger(logger), rpager.WithCompiler(compiler))
	prompt := cfg.Pager.Prompt
	if prompt == "" {
		prompt = promptFor(args)
	}
	for _, err := range []error{
		p.SetText(text),
		p.SetPrompt(prompt),
		p.SetLineNumbers(lineNumbers),
		p.SetExitStrategy(exitStrategy),
		p.SetRunNoOverflow(cfg.Pager.QuitIfOneScreen),
	} {
		if err != nil {
			return err
		}
	}

	logger.Debug("paging", "files", len(args), "bytes", len(text), "follow", cfg.Pager.Follow)
	if !cfg.Pager.Follow {
		return p.RunStatic(ctx, os.Stdout)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	follower := fs.Follower{
		Path:     args[0],
		OnAppend: p.PushStr,
		OnReset:  p.SetText,
		Encoding: doc.Encoding,
		Logger:   logger,
	}
	go func() {
		if err := follower.Run(ctx, doc.Size); err != nil && !errors.Is(err, rpager.ErrClosed) {
			logger.Warn("follow stopped", "path", args[0], "error", err)
		}
	}()
	return p.Run(ctx)
}

// readDocuments concatenates the inputs, separating several files with a
// header naming each one. Only a single input keeps its size and encoding,
// which follow mode needs.
func readDocuments(paths []string) (fs.Document, error) {
	if len(paths) == 1 {
		return fs.LoadDocument(paths[0])
	}
	var b strings.Builder
	for _, path := range paths {
		text, err := fs.ReadDocument(path)
		if err != nil {
			return fs.Document{}, err
		}
		fmt.Fprintf(&b, "::::::::::::::\n%s\n::::::::::::::\n", path)
		b.WriteString(text)
		if text != "" && !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return fs.Document{Text: b.String()}, nil
}

func promptFor(paths []string) string {
	switch {
	case len(paths) == 1 && paths[0] == "-":
		return "(stdin)"
	case len(paths) == 1:
		return filepath.Base(paths[0])
	default:
		return fmt.Sprintf("%d files", len(paths))
	}
}
