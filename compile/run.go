// Package compile implements the compile command: it turns style
// declaration files into CSS.
package compile

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stylec/archive"
	"stylec/state"
)

// StdoutDestination makes results go to standard output.
const StdoutDestination = "-"

var sourceExts = []string{".yaml", ".yml", ".json"}

// Flags returns flags of compile command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "classes", Usage: "also write class map of every sheet next to its CSS as <name>.classes.yaml"},
		&cli.BoolFlag{Name: "verify", Usage: "parse produced CSS back and report discrepancies"},
		&cli.BoolFlag{Name: "strict", Usage: "plain values under nested rule names are errors"},
		&cli.BoolFlag{Name: "unnamed", Usage: "use top level keys as selectors instead of names"},
		&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exists, overwrite files"},
	}
}

// Run is the compile command action. It compiles the source file, archive or
// directory given as first argument into CSS files in the destination
// directory given as second argument (current directory when omitted, "-"
// for standard output). Command line flags override sheet configuration.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst != StdoutDestination {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	// command line can only turn things on
	if cmd.Bool("verify") {
		env.Cfg.Sheet.Verify = true
	}
	if cmd.Bool("strict") {
		env.Cfg.Sheet.Strict = true
	}
	if cmd.Bool("unnamed") {
		env.Cfg.Sheet.Named = false
	}
	env.Compile = state.CompileOptions{Overwrite: cmd.Bool("overwrite"), Classes: cmd.Bool("classes")}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process compiles a single file, every declaration file of a zip archive or
// of a directory.
// Failure of one file does not stop the others, all errors are returned
// together.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}

	var files []string
	switch {
	case fi.IsDir():
		if files, err = listSources(src); err != nil {
			return fmt.Errorf("unable to read source directory: %w", err)
		}
		if len(files) == 0 {
			log.Warn("Nothing to process", zap.String("dir", src))
			return nil
		}
	case fi.Mode().IsRegular():
		files = []string{src}
	default:
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}

	c, err := newCompiler(ctx, dst, log)
	if err != nil {
		return err
	}

	var errs error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if isArchive(file) {
			errs = multierr.Append(errs, processArchive(ctx, c, file, log))
			continue
		}
		if err := c.compileFile(file); err != nil {
			log.Error("Unable to compile file", zap.String("file", file), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(file), err))
		}
	}
	return errs
}

// processArchive compiles every declaration file stored in zip archive.
func processArchive(ctx context.Context, c *compiler, arc string, log *zap.Logger) error {
	var errs error
	count := 0
	err := archive.Walk(arc, isSource, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		if err := c.compileEntry(arc, f); err != nil {
			log.Error("Unable to compile archive entry", zap.String("archive", arc), zap.String("entry", f.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s:%s: %w", filepath.Base(arc), f.Name, err))
		}
		return nil
	})
	if err != nil {
		return multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(arc), err))
	}
	if count == 0 {
		log.Warn("Nothing to process", zap.String("archive", arc))
	}
	return errs
}

// listSources returns declaration files and archives of dir in natural order.
func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !(isSource(e.Name()) || isArchive(e.Name())) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(natural.StringSlice(names))

	files := make([]string, 0, len(names))
	for _, name := range names {
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func isSource(name string) bool {
	return slices.Contains(sourceExts, strings.ToLower(filepath.Ext(name)))
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}
