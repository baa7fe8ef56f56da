package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/project"
	"viper/internal/pyfront"
	"viper/internal/source"
)

// Unit is one lowered module ready for compilation.
type Unit struct {
	Module  string
	Package bool
	File    *source.File
	Builder *ast.Builder
	Tree    ast.FileID
	Imports []project.ImportMeta
	Diags   []diag.Diagnostic // front end findings
}

// Meta describes the unit for the import graph.
func (u *Unit) Meta() project.ModuleMeta {
	name := u.Module
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	meta := project.ModuleMeta{
		Name:    name,
		Path:    u.Module,
		Package: u.Package,
		Imports: u.Imports,
	}
	if u.File != nil {
		meta.File = u.File.ID
		meta.ContentHash = project.Digest(u.File.Hash)
		end, err := safecast.Conv[uint32](len(u.File.Content))
		if err != nil {
			panic(fmt.Errorf("driver: file size overflow: %w", err))
		}
		meta.Span = source.Span{File: u.File.ID, End: end}
	}
	return meta
}

// Sources is a loaded set of units with the file set that owns their text.
type Sources struct {
	Root  string
	Files *source.FileSet
	Units []*Unit
	// Entry is the module a single-file load was pointed at.
	Entry string
	// Diags holds problems with files that produced no unit.
	Diags []diag.Diagnostic
}

type pending struct {
	rel  string
	id   source.FileID
	key  string
	pkg  bool
	diag *diag.Diagnostic
}

// listPyFiles returns the sorted *.py files under dir, skipping hidden
// directories and bytecode caches.
func listPyFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (strings.HasPrefix(name, ".") || name == "__pycache__") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir reads every Python file under dir and lowers them in parallel.
func LoadDir(ctx context.Context, dir string, jobs int) (*Sources, error) {
	files, err := listPyFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	src := &Sources{Root: dir, Files: source.NewFileSet()}
	items := make([]pending, 0, len(files))
	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		items = append(items, src.load(path, filepath.ToSlash(rel)))
	}
	return src, src.lower(ctx, items, jobs)
}

// LoadFile loads a single file as its own project rooted at the file's
// directory. The file's module becomes the entry.
func LoadFile(ctx context.Context, path string) (*Sources, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	src := &Sources{Root: filepath.Dir(path), Files: source.NewFileSet()}
	item := src.load(path, filepath.Base(path))
	src.Entry = item.key
	return src, src.lower(ctx, []pending{item}, 1)
}

// LoadVirtual lowers in-memory sources keyed by their slash path, such as
// "zoo/animals.py".
func LoadVirtual(ctx context.Context, files map[string]string, jobs int) (*Sources, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	src := &Sources{Files: source.NewFileSet()}
	items := make([]pending, 0, len(paths))
	for _, p := range paths {
		id := src.Files.AddVirtual(p, []byte(files[p]))
		items = append(items, src.keyed(p, id))
	}
	return src, src.lower(ctx, items, jobs)
}

func (s *Sources) load(path, rel string) pending {
	id, err := s.Files.Load(path)
	if err != nil {
		d := diag.New(diag.SevError, diag.IOLoadFileError, source.NoSpan, fmt.Sprintf("failed to load file: %v", err))
		d.Module = rel
		return pending{rel: rel, diag: &d}
	}
	return s.keyed(rel, id)
}

func (s *Sources) keyed(rel string, id source.FileID) pending {
	key, pkg, err := project.ModuleKey(rel)
	if err != nil {
		d := diag.New(diag.SevWarning, diag.IOLoadFileError, source.Span{File: id},
			fmt.Sprintf("%s is not importable and was skipped: %v", rel, err))
		d.Module = rel
		return pending{rel: rel, id: id, diag: &d}
	}
	s.Files.SetModule(id, key)
	return pending{rel: rel, id: id, key: key, pkg: pkg}
}

func (s *Sources) lower(ctx context.Context, items []pending, jobs int) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	units := make([]*Unit, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(items))))
	for i, it := range items {
		if it.diag != nil {
			s.Diags = append(s.Diags, *it.diag)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file := s.Files.Get(it.id)
			res, err := pyfront.ParseFile(file, pyfront.Options{Module: it.key, Package: it.pkg})
			if err != nil {
				return fmt.Errorf("%s: %w", it.rel, err)
			}
			// индекс i уникален для горутины
			units[i] = &Unit{
				Module:  it.key,
				Package: it.pkg,
				File:    file,
				Builder: res.Builder,
				Tree:    res.File,
				Imports: res.Imports,
				Diags:   res.Diagnostics,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, u := range units {
		if u != nil {
			s.Units = append(s.Units, u)
		}
	}
	return nil
}
