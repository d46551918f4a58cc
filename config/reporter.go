package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"stylec/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination could not be created report
// goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), file: f}, nil
}

// kinds of report entries as listed in MANIFEST
const (
	kindData    = "data"
	kindFile    = "file"
	kindDir     = "dir"
	kindMissing = "missing"
)

// entry is either in memory data or a path read when report is closed.
type entry struct {
	path  string
	data  []byte
	stamp time.Time
}

func (e entry) kind() (string, fs.FileInfo) {
	if e.path == "" {
		return kindData, nil
	}
	info, err := os.Stat(e.path)
	switch {
	case err != nil:
		return kindMissing, nil
	case info.Mode().IsRegular():
		return kindFile, info
	case info.IsDir():
		return kindDir, info
	}
	return kindMissing, nil
}

// Report collects sources, results, logs and debug dumps of a run into a
// single zip archive. Methods of nil Report do nothing, so callers do not
// have to check whether report was requested. Not safe for concurrent use.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store adds file or directory to the report under name. Its content is read
// when report is closed, so files still being written (logs) are complete.
// Same name may be stored again only for the same path.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if old, ok := r.entries[name]; ok && old.path != path {
		panic(fmt.Sprintf("report entry %q already stored from %q, now %q", name, old.path, path))
	}
	r.entries[name] = entry{path: path}
}

// StoreData adds data to the report under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, ok := r.entries[name]; ok {
		panic(fmt.Sprintf("report entry %q already stored", name))
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

// Close writes the archive: MANIFEST listing every entry with its kind and
// origin, then entries in name order. Missing paths are only listed.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()

	arc := zip.NewWriter(r.file)
	now := time.Now()
	names := slices.Sorted(maps.Keys(r.entries))

	manifest := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		kind, _ := e.kind()
		fmt.Fprintf(manifest, "%s\t%s\t%s\n", name, kind, e.path)
	}
	if err := writeEntry(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		kind, info := e.kind()
		var err error
		switch kind {
		case kindData:
			err = writeEntry(arc, name, e.stamp, bytes.NewReader(e.data))
		case kindFile:
			err = writeFile(arc, name, e.path, info.ModTime())
		case kindDir:
			err = writeDir(arc, name, e.path)
		}
		if err != nil {
			return fmt.Errorf("report entry %q: %w", name, err)
		}
	}
	return arc.Close()
}

func writeEntry(arc *zip.Writer, name string, stamp time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: stamp})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func writeFile(arc *zip.Writer, name, path string, stamp time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeEntry(arc, name, stamp, f)
}

// writeDir stores regular files under dir rooted at name.
func writeDir(arc *zip.Writer, name, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return writeFile(arc, filepath.ToSlash(filepath.Join(name, rel)), path, info.ModTime())
	})
}
