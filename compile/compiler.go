package compile

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"stylec/config"
	"stylec/css"
	"stylec/refs"
	"stylec/sheet"
	"stylec/source"
	"stylec/state"
)

// compiler turns declaration files into CSS files in dst.
type compiler struct {
	env    *state.LocalEnv
	dst    string
	log    *zap.Logger
	namer  sheet.ClassNamer
	parser *css.Parser
	// outputs of this run: relative output name -> source
	produced map[string]string
}

func newCompiler(ctx context.Context, dst string, log *zap.Logger) (*compiler, error) {
	env := state.EnvFromContext(ctx)
	namer, err := env.Cfg.Sheet.ClassNamer()
	if err != nil {
		return nil, err
	}
	c := &compiler{env: env, dst: dst, log: log, namer: namer, produced: make(map[string]string)}
	if env.Cfg.Sheet.Verify {
		c.parser = css.NewParser(log)
	}
	return c, nil
}

// loader returns declarations of a single source.
type loader func() (*sheet.Style, error)

// build loads declarations and runs them through the sheet.
func (c *compiler) build(load loader, id string) (*sheet.Sheet, error) {
	decls, err := load()
	if err != nil {
		return nil, err
	}
	cfg := &c.env.Cfg.Sheet
	g := sheet.NewRegistry(c.log, sheet.WithClassNamer(c.namer)).
		Use(refs.New(c.log, refs.WithStrict(cfg.Strict)).Plugin())
	return g.CreateStyleSheet(decls, sheet.SheetOptions{Named: cfg.Named, ID: id})
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func (c *compiler) compileFile(file string) error {
	c.env.Rpt.Store("source/"+filepath.Base(file), file)
	return c.compile(file, trimExt(filepath.Base(file)), func() (*sheet.Style, error) {
		return source.LoadFile(file)
	})
}

// compileEntry compiles declaration file stored in zip archive. Results go
// under directory named after the archive, keeping directory structure of
// the entry.
func (c *compiler) compileEntry(arc string, f *zip.File) error {
	key := filepath.Base(arc) + "/" + f.Name
	rel := trimExt(filepath.Base(arc)) + "/" + trimExt(f.Name)
	return c.compile(arc+":"+f.Name, rel, func() (*sheet.Style, error) {
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("unable to open archive entry %s: %w", f.Name, err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("unable to read archive entry %s: %w", f.Name, err)
		}
		c.env.Rpt.StoreData("source/"+key, data)

		decls, err := source.Load(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		return decls, nil
	})
}

// compile produces CSS for a single source. rel is slash separated output
// name without extension relative to destination, its slug is the sheet id.
// Two sources of one run may not produce the same output.
func (c *compiler) compile(from, rel string, load loader) error {
	if prev, ok := c.produced[rel]; ok {
		return fmt.Errorf("output %q is already produced from %s", rel, prev)
	}
	c.produced[rel] = from

	start := time.Now()
	s, err := c.build(load, slug.Make(rel))
	if err != nil {
		return err
	}

	if c.env.Rpt != nil {
		c.env.Rpt.StoreData("debug/"+rel+".tree.txt", []byte(s.Dump()))
	}

	produced := s.Stylesheet()
	var buf bytes.Buffer
	if _, err := produced.WriteTo(&buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
	if c.parser != nil {
		c.verify(from, produced, buf.Bytes())
	}

	to, err := c.output(rel+".css", buf.Bytes())
	if err != nil {
		return err
	}
	if c.env.Compile.Classes {
		if err := c.writeClasses(s, rel); err != nil {
			return err
		}
	}

	c.log.Info("Compilation completed", zap.String("from", from), zap.String("to", to),
		zap.Int("rules", produced.Len()), zap.Int("classes", len(s.ClassNames())), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// outputPath maps slash separated relative name to a file in destination
// directory.
func (c *compiler) outputPath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = config.CleanFileName(p)
	}
	return filepath.Join(append([]string{c.dst}, parts...)...)
}

// output writes data to the named file in destination directory or to
// standard output and returns where it went.
func (c *compiler) output(name string, data []byte) (string, error) {
	if c.dst == StdoutDestination {
		if _, err := c.env.Stdout.Write(data); err != nil {
			return "", fmt.Errorf("unable to write result: %w", err)
		}
		c.env.Rpt.StoreData("result/"+name, data)
		return "STDOUT", nil
	}

	fname := c.outputPath(name)
	if _, err := os.Stat(fname); err == nil {
		if !c.env.Compile.Overwrite {
			return "", fmt.Errorf("output file already exists: %s", fname)
		}
		c.log.Warn("Overwriting existing file", zap.String("file", fname))
	} else if !os.IsNotExist(err) {
		return "", err
	} else if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(fname, data, 0644); err != nil {
		return "", fmt.Errorf("unable to write result: %w", err)
	}
	c.env.Rpt.Store("result/"+name, fname)
	return fname, nil
}

func (c *compiler) writeClasses(s *sheet.Sheet, rel string) error {
	if c.dst == StdoutDestination {
		c.log.Warn("Class map requires destination directory, skipping", zap.String("sheet", rel))
		return nil
	}
	data, err := classesYAML(s)
	if err != nil {
		return fmt.Errorf("unable to prepare class map: %w", err)
	}
	_, err = c.output(rel+".classes.yaml", data)
	return err
}

// classesYAML renders declared names mapped to generated classes, in
// declaration order.
func classesYAML(s *sheet.Sheet) ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range s.ClassNames() {
		class, _ := s.Class(name)
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: class})
	}
	return yaml.Marshal(m)
}

// verify parses produced CSS back and reports anything which did not
// survive the round trip.
func (c *compiler) verify(path string, produced *css.Stylesheet, data []byte) {
	parsed := c.parser.Parse(data, path)
	for _, w := range parsed.Warnings {
		c.log.Warn("Produced CSS verification", zap.String("file", path), zap.String("warning", w))
	}
	if parsed.Len() != produced.Len() {
		c.log.Warn("Produced CSS rule count mismatch", zap.String("file", path),
			zap.Int("produced", produced.Len()), zap.Int("parsed", parsed.Len()))
		return
	}
	c.log.Debug("Produced CSS verified", zap.String("file", path), zap.Int("rules", parsed.Len()))
}
