package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"gptloader/pkg/combine"
	"gptloader/pkg/config"
	"gptloader/pkg/errors"
	"gptloader/pkg/ignore"
	"gptloader/pkg/logging"
	"gptloader/pkg/version"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const usageLine = "Usage: gptloader /path/to/git/repository_or_zip [-p /path/to/preamble.txt] [-o /path/to/output_file.txt]"

// Options carries what the commands need from the environment. ProgramDir is resolved
// once at startup and stands in for "next to the program" everywhere.
type Options struct {
	Fs         afero.Fs
	ProgramDir string
	Logger     *zap.Logger // Built from --debug when nil.
	Stdout     io.Writer
}

type rootFlags struct {
	preamble   string
	output     string
	extractDir string
	ignoreFile string
	tree       string
	maxSizeKB  int
	configFile string
	debug      bool
}

// NewRootCmd returns the gptloader command tree.
func NewRootCmd(opts *Options) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "gptloader <input_path>",
		Short: "gptloader turns a repository into a single text document for an LLM",
		Long: `gptloader walks a directory (or a zip archive of one), drops paths matching the
patterns in .gptignore, and writes every remaining file into one document framed with
---- separators and terminated by --END--, ready to paste as language model context.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), usageLine)
				return errors.ErrorWithExitCode{Err: errors.Errorf("missing input path"), ExitCode: 1, Silent: true}
			}
			return runLoad(cmd, opts, flags, args[0])
		},
	}

	if opts.Stdout != nil {
		rootCmd.SetOut(opts.Stdout)
	}

	f := rootCmd.Flags()
	f.StringVarP(&flags.preamble, "preamble", "p", "", "File whose contents replace the default preamble")
	f.StringVarP(&flags.output, "output", "o", "", "Output file (default: output.txt next to the input)")
	f.StringVar(&flags.extractDir, "extract-dir", "", "Directory a zip input is extracted into; empty for a fresh temporary directory (default: extracted_repo next to the program)")
	f.StringVar(&flags.ignoreFile, "ignore-file", ignore.DefaultFileName, "Name of the ignore file looked up in the scanned directory")
	f.StringVar(&flags.tree, "tree", "", "Also write a directory tree of the included files to this path")
	f.IntVar(&flags.maxSizeKB, "max-size-kb", 0, "Record files larger than this many KiB as binary (0 for no limit)")
	f.StringVar(&flags.configFile, "config", "", "Settings file (default: gptloader.toml next to the program)")
	f.BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func runLoad(cmd *cobra.Command, opts *Options, flags *rootFlags, input string) error {
	changed := cmd.Flags().Changed

	cfgPath := filepath.Join(opts.ProgramDir, config.FileName)
	if changed("config") {
		cfgPath = flags.configFile
	}
	fileCfg, err := config.Load(opts.Fs, cfgPath, changed("config"))
	if err != nil {
		return err
	}

	logger := opts.Logger
	if logger == nil {
		if err := logging.Setup(flags.debug || fileCfg.Debug, "gptloader", version.Version); err != nil {
			return errors.WithStackTraceAndPrefix(err, "failed to initialize logger")
		}
		logger = logging.Logger
	}
	logger.Debug("Loaded settings", zap.String("config", cfgPath))

	args := &combine.Arguments{
		Input:              input,
		Output:             pick(changed("output"), flags.output, fileCfg.Output),
		PreambleFile:       pick(changed("preamble"), flags.preamble, fileCfg.Preamble),
		ExtractDir:         filepath.Join(opts.ProgramDir, config.ExtractDirName),
		IgnoreFileName:     pick(changed("ignore-file"), flags.ignoreFile, fileCfg.IgnoreFile),
		FallbackIgnoreFile: filepath.Join(opts.ProgramDir, ignore.DefaultFileName),
		Tree:               pick(changed("tree"), flags.tree, fileCfg.Tree),
		MaxFileSizeKB:      fileCfg.MaxSizeKB,
	}
	if changed("extract-dir") {
		args.ExtractDir = flags.extractDir
	} else if fileCfg.ExtractDir != "" {
		args.ExtractDir = fileCfg.ExtractDir
	}
	if changed("max-size-kb") {
		args.MaxFileSizeKB = flags.maxSizeKB
	}

	output, err := combine.RunCombine(opts.Fs, args, logger)
	if err != nil {
		logger.Error("gptloader execution failed", zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Repository contents written to %s.\n", output)
	return nil
}

// pick returns the flag value when the flag was set, else the settings-file value, else
// the flag default.
func pick(flagSet bool, flagValue, fileValue string) string {
	if flagSet || fileValue == "" {
		return flagValue
	}
	return fileValue
}

// Execute resolves the program directory and runs the root command against the real
// filesystem. The returned error always carries a stack trace.
func Execute() error {
	programDir, err := config.ProgramDir()
	if err != nil {
		return err
	}

	return errors.WithStackTrace(NewRootCmd(&Options{
		Fs:         afero.NewOsFs(),
		ProgramDir: programDir,
	}).Execute())
}
