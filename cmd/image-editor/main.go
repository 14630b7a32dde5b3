package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"image-editor-go/internal/config"
	"image-editor-go/internal/editor"
	"image-editor-go/internal/imageops"
	"image-editor-go/internal/logger"
	"image-editor-go/internal/metadata"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "0.2.0"

// app holds the flags and collaborators of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile  string
	verbose  bool
	quiet    bool
	workers  int
	progress bool

	cfg      *config.Config
	log      *logrus.Logger
	closeLog func() error
	copier   *metadata.ExifCopier

	// handled is set once an error has been logged by the editor.
	handled bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

// newRootCmd builds the command tree.
func (a *app) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "image-editor",
		Short: "Convert, compress and resize JPEG and PNG images",
		Long: `image-editor applies simple raster transformations to a single image
or to every eligible image of a directory:

- convert: flatten any readable image onto white and write it as JPEG
- compress: re-encode a JPEG at a lower quality (1-95, default 75)
- resize: divide both dimensions of a JPEG or PNG by a proportion (default 2)

Directory variants write <name>-<Suffix><ext> into the output directory and
never overwrite existing files.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(a.stderr, cmd.UsageString())
			return editor.ErrUsage
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&a.quiet, "quiet", false, "suppress non-error output")

	for _, op := range []editor.Op{editor.OpConvert, editor.OpCompress, editor.OpResize} {
		rootCmd.AddCommand(a.newFileCmd(op))
		rootCmd.AddCommand(a.newDirCmd(op))
	}
	rootCmd.AddCommand(a.newInfoCmd())
	rootCmd.AddCommand(a.newVersionCmd())

	return rootCmd
}

// paramName returns the optional third argument of op, if any.
func paramName(op editor.Op) string {
	switch op {
	case editor.OpCompress:
		return "QUALITY"
	case editor.OpResize:
		return "PROPORTION"
	default:
		return ""
	}
}

func argsRange(op editor.Op) (int, int) {
	if paramName(op) == "" {
		return 2, 2
	}
	return 2, 3
}

func useLine(name, in, out string, op editor.Op) string {
	use := fmt.Sprintf("%s %s %s", name, in, out)
	if p := paramName(op); p != "" {
		use += " [" + p + "]"
	}
	return use
}

// checkArgs validates the positional arguments and prints the command usage
// when they are wrong.
func (a *app) checkArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := editor.CheckArgs(args, min, max); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			fmt.Fprint(a.stderr, cmd.UsageString())
			a.handled = true
			return err
		}
		return nil
	}
}

func (a *app) newFileCmd(op editor.Op) *cobra.Command {
	cmd := &cobra.Command{
		Use:   useLine(op.String(), "INPUTFILE", "OUTPUTFILE", op),
		Short: fileShort(op),
		Args:  a.checkArgs(argsRange(op)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := a.newEditor(op)
			err := ed.Run(op, editor.Request{
				Source:      args[0],
				Destination: args[1],
				Param:       editor.NewParam(args[2:]),
			})
			a.handled = err != nil
			return err
		},
	}
	// Keep arguments such as "-5" positional so they reach the parameter check.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) newDirCmd(op editor.Op) *cobra.Command {
	cmd := &cobra.Command{
		Use:   useLine(op.BatchName(), "INPUTDIR", "OUTPUTDIR", op),
		Short: dirShort(op),
		Args:  a.checkArgs(argsRange(op)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ed := a.newEditor(op)
			if (a.progress || a.cfg.Batch.ShowProgress) && !a.quiet {
				ed.SetProgressOutput(a.stderr)
			}

			stats, err := ed.RunBatch(ctx, op, editor.Request{
				Source:      args[0],
				Destination: args[1],
				Param:       editor.NewParam(args[2:]),
			})
			a.handled = err != nil

			if (err == nil || errors.Is(err, context.Canceled)) && !a.quiet {
				fmt.Fprintln(a.stdout, "\n"+stats.GetSummary())
				fmt.Fprintln(a.stdout, "\n"+strings.TrimSuffix(stats.GetFileTypeBreakdown(), "\n"))
				if stats.ErrorCount() > 0 {
					fmt.Fprintln(a.stdout, "\n"+stats.GetErrorSummary())
				}
			}
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().IntVar(&a.workers, "workers", 0, "number of files processed in parallel (default from config)")
	cmd.Flags().BoolVar(&a.progress, "progress", false, "show a progress bar")
	return cmd
}

func (a *app) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info INPUTFILE",
		Short: "Show format, dimensions, hash and EXIF data of an image",
		Args:  a.checkArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.newEditor(editor.OpConvert).Info(args[0])
			if err != nil {
				a.handled = true
				return err
			}
			printReport(a.stdout, report)
			return nil
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  a.checkArgs(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "Current version: %s\n", version)
			return nil
		},
	}
}

func fileShort(op editor.Op) string {
	switch op {
	case editor.OpConvert:
		return "Convert an image to JPEG"
	case editor.OpCompress:
		return "Compress a JPEG image (QUALITY 1-95, default 75)"
	default:
		return "Resize a JPEG or PNG image by PROPORTION (default 2)"
	}
}

func dirShort(op editor.Op) string {
	switch op {
	case editor.OpConvert:
		return "Convert every image of a directory to JPEG"
	case editor.OpCompress:
		return "Compress every JPEG image of a directory"
	default:
		return "Resize every JPEG and PNG image of a directory"
	}
}

// setup loads the configuration and the logger before a command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if !cmd.HasParent() || cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.workers > 0 {
		cfg.Batch.Workers = a.workers
	}
	a.cfg = cfg

	log, closeLog, err := a.setupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.log = log
	a.closeLog = closeLog

	if a.cfgFile != "" {
		log.Debugf("Using config file: %s", a.cfgFile)
	}
	return nil
}

// setupLogger configures and returns a logger.
func (a *app) setupLogger(cfg *config.Config) (*logrus.Logger, func() error, error) {
	loggerCfg := logger.DefaultConfig()
	loggerCfg.Level = cfg.Logging.Level
	loggerCfg.Format = cfg.Logging.Format
	loggerCfg.FilePath = cfg.Logging.FilePath
	loggerCfg.MaxSize = cfg.Logging.MaxSize
	loggerCfg.MaxBackups = cfg.Logging.MaxBackups
	loggerCfg.MaxAge = cfg.Logging.MaxAge
	loggerCfg.Compress = cfg.Logging.Compress
	loggerCfg.Output = a.stderr

	if a.verbose {
		loggerCfg.Level = "debug"
	}
	if a.quiet {
		loggerCfg.Level = "error"
	}

	return logger.NewLogger(loggerCfg)
}

// newEditor wires the editor for op. The exiftool process is only started
// when compress has to preserve metadata.
func (a *app) newEditor(op editor.Op) *editor.Editor {
	processor := imageops.NewDefaultProcessor(a.cfg.ProcessorOptions())

	var copier editor.MetadataCopier
	if op == editor.OpCompress && a.cfg.Compress.PreserveMetadata {
		c, err := metadata.NewExifCopier(a.log)
		if err != nil {
			a.log.Warnf("Metadata will not be preserved: %v", err)
		} else {
			a.copier = c
			copier = c
		}
	}

	return editor.NewEditor(a.cfg, a.log, processor, copier)
}

// close releases the exiftool process and flushes the log file.
func (a *app) close() {
	if a.copier != nil {
		if err := a.copier.Close(); err != nil && a.log != nil {
			a.log.Debugf("Failed to stop exiftool: %v", err)
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			fmt.Fprintf(a.stderr, "Failed to close log file: %v\n", err)
		}
	}
}

func printReport(w io.Writer, r *metadata.Report) {
	fmt.Fprintf(w, "File: %s\n", r.Path)
	fmt.Fprintf(w, "Format: %s\n", r.Format)
	fmt.Fprintf(w, "Dimensions: %dx%d\n", r.Width, r.Height)
	fmt.Fprintf(w, "Size: %d bytes\n", r.Size)
	fmt.Fprintf(w, "Average hash: %016x\n", r.AverageHash)

	if !r.HasEXIF() {
		fmt.Fprintln(w, "EXIF: none")
		return
	}
	if r.DateTime != nil {
		fmt.Fprintf(w, "Date: %s\n", r.DateTime.Format("2006-01-02 15:04:05"))
	}
	if r.Make != "" || r.Model != "" {
		fmt.Fprintf(w, "Camera: %s %s\n", r.Make, r.Model)
	}
	if r.Orientation != 0 {
		fmt.Fprintf(w, "Orientation: %d\n", r.Orientation)
	}
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer a.close()

	rootCmd := a.newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil && !a.handled && !errors.Is(err, editor.ErrUsage) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return editor.ExitCode(err)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
