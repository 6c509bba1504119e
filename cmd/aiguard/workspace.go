package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/odvcencio/aiguard/pkg/config"
	"github.com/odvcencio/aiguard/pkg/guard"
	"github.com/odvcencio/aiguard/pkg/lang"
	"github.com/odvcencio/aiguard/pkg/lang/cfamily"
	"github.com/odvcencio/aiguard/pkg/lang/python"
	"github.com/odvcencio/aiguard/pkg/lang/treesitter"
)

// findRoot walks up from start to the project root: the first directory
// containing an .ai-guard manifest or a .git directory. Falls back to the
// starting directory.
func findRoot(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	cur := abs
	for {
		if _, err := os.Stat(filepath.Join(cur, guard.ManifestName)); err == nil {
			return cur
		}
		if info, err := os.Stat(filepath.Join(cur, ".git")); err == nil && info.IsDir() {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}

// buildRegistry registers the built-in extractor families and applies
// project-config extension overrides on top.
func buildRegistry(cfg *config.Config) *lang.Registry {
	reg := lang.NewRegistry()

	reg.Register(cfamily.Extensions, cfamily.New())
	reg.Register(python.Extensions, python.New())
	for _, ext := range treesitter.Extensions {
		reg.Register([]string{ext}, treesitter.New(ext))
	}

	for ext, family := range cfg.Extensions {
		switch family {
		case "c":
			reg.Register([]string{ext}, cfamily.New())
		case "python":
			reg.Register([]string{ext}, python.New())
		case "treesitter":
			reg.Register([]string{ext}, treesitter.New(ext))
		}
	}
	return reg
}

// openGuard resolves the project root, loads config, and opens the
// manifest.
func openGuard() (*guard.Guard, error) {
	root := findRoot(".")
	logger.Debug("resolved project root", "dir", root)

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return guard.Open(root, buildRegistry(cfg))
}

// target is one resolved (path, pattern) pair. The path is root-relative
// and slash-separated, as stored in the manifest.
type target struct {
	path    string
	pattern string
}

// splitTarget separates "path[:pattern]". A target naming an existing
// file is always whole-file, so paths containing colons still work.
func splitTarget(arg string) (path, pattern string) {
	if _, err := os.Stat(arg); err == nil {
		return arg, ""
	}
	if i := strings.Index(arg, ":"); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}

// expandTargets parses and glob-expands command-line targets. Glob
// expansion applies to the path portion only, supports ** via doublestar,
// and yields sorted root-relative paths. A glob matching nothing is an
// error; non-glob paths pass through untouched for the guard layer to
// report precisely.
func expandTargets(root string, args []string) ([]target, error) {
	var out []target
	for _, arg := range args {
		path, pattern := splitTarget(arg)

		if !strings.ContainsAny(path, "*?[") {
			rel, err := rootRelative(root, path)
			if err != nil {
				return nil, err
			}
			out = append(out, target{path: rel, pattern: pattern})
			continue
		}

		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files matching %q", path)
		}
		sort.Strings(matches)
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			rel, err := rootRelative(root, m)
			if err != nil {
				return nil, err
			}
			out = append(out, target{path: rel, pattern: pattern})
		}
	}
	return out, nil
}

// rootRelative converts a path to root-relative slash form.
func rootRelative(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside the project root %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}
