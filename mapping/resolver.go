package mapping

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

//go:embed mappings
var embeddedMappings embed.FS

// Store is the persisted-mapping collaborator: named mappings managed by
// the hosting application, addressed by numeric id or label.
type Store interface {
	MappingByID(id int) (string, error)
	MappingByLabel(label string) (string, error)
}

// Resolver turns a mapping reference into its content.
//
// References resolve by prefix: "mapping:" goes to the Store (a numeric
// suffix means lookup by id, anything else by label), "module:" to the
// bundled mapping directory, "user:" to the configured user directory, and
// a bare reference defaults to the bundled directory. File references try,
// in order: an absolute path, the context directory (the referring
// mapping's own folder, for sibling includes), the shared common/
// directory, then the base directory.
type Resolver struct {
	store     Store
	userDir   string
	moduleFS  fs.FS
	moduleDir string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStore provides the persisted-mapping collaborator.
func WithStore(s Store) ResolverOption {
	return func(r *Resolver) { r.store = s }
}

// WithUserDir sets the base directory of user-uploaded mappings.
func WithUserDir(dir string) ResolverOption {
	return func(r *Resolver) { r.userDir = dir }
}

// WithModuleDir overrides the bundled mapping directory with an on-disk
// one.
func WithModuleDir(dir string) ResolverOption {
	return func(r *Resolver) { r.moduleDir = dir }
}

// NewResolver creates a resolver over the bundled mappings.
func NewResolver(opts ...ResolverOption) *Resolver {
	sub, _ := fs.Sub(embeddedMappings, "mappings")
	r := &Resolver{moduleFS: sub}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the content behind a reference. contextDir is the folder
// of the referring mapping, "" when there is none.
func (r *Resolver) Resolve(ref, contextDir string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty mapping reference")
	}

	switch {
	case strings.HasPrefix(ref, "mapping:"):
		return r.resolveStored(strings.TrimPrefix(ref, "mapping:"))
	case strings.HasPrefix(ref, "user:"):
		return r.resolveUser(strings.TrimPrefix(ref, "user:"), contextDir)
	case strings.HasPrefix(ref, "module:"):
		return r.resolveModule(strings.TrimPrefix(ref, "module:"), contextDir)
	default:
		return r.resolveModule(ref, contextDir)
	}
}

// ContextDir returns the folder a reference resolves under, used for
// sibling includes of the resolved mapping.
func (r *Resolver) ContextDir(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "mapping:"):
		return ""
	case strings.HasPrefix(ref, "user:"):
		return path.Dir(strings.TrimPrefix(ref, "user:"))
	case strings.HasPrefix(ref, "module:"):
		return path.Dir(strings.TrimPrefix(ref, "module:"))
	default:
		return path.Dir(ref)
	}
}

func (r *Resolver) resolveStored(ref string) (string, error) {
	if r.store == nil {
		return "", fmt.Errorf("no mapping store configured for reference %q", ref)
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return r.store.MappingByID(id)
	}
	return r.store.MappingByLabel(ref)
}

func (r *Resolver) resolveUser(rel, contextDir string) (string, error) {
	if r.userDir == "" {
		return "", fmt.Errorf("no user mapping directory configured for reference %q", rel)
	}
	for _, candidate := range fileCandidates(rel, contextDir) {
		data, err := os.ReadFile(filepath.Join(r.userDir, filepath.FromSlash(candidate)))
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("user mapping %q not found", rel)
}

func (r *Resolver) resolveModule(rel, contextDir string) (string, error) {
	// Absolute paths bypass the bundled directory entirely.
	if filepath.IsAbs(rel) {
		data, err := os.ReadFile(rel)
		if err != nil {
			return "", fmt.Errorf("mapping file %q: %w", rel, err)
		}
		return string(data), nil
	}
	for _, candidate := range fileCandidates(rel, contextDir) {
		if r.moduleDir != "" {
			if data, err := os.ReadFile(filepath.Join(r.moduleDir, filepath.FromSlash(candidate))); err == nil {
				return string(data), nil
			}
			continue
		}
		if data, err := fs.ReadFile(r.moduleFS, candidate); err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("bundled mapping %q not found", rel)
}

// fileCandidates lists the relative paths to try for a file reference, in
// resolution order: context directory, common/, base directory.
func fileCandidates(rel, contextDir string) []string {
	rel = path.Clean(strings.TrimPrefix(rel, "/"))
	var out []string
	add := func(p string) {
		p = path.Clean(p)
		for _, existing := range out {
			if existing == p {
				return
			}
		}
		out = append(out, p)
	}
	if contextDir != "" && contextDir != "." {
		add(path.Join(contextDir, rel))
	}
	add(path.Join("common", rel))
	add(rel)
	return out
}

// List enumerates the bundled mapping files.
func (r *Resolver) List() []string {
	var out []string
	if r.moduleDir != "" {
		_ = filepath.WalkDir(r.moduleDir, func(p string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				if rel, relErr := filepath.Rel(r.moduleDir, p); relErr == nil {
					out = append(out, filepath.ToSlash(rel))
				}
			}
			return nil
		})
		return out
	}
	_ = fs.WalkDir(r.moduleFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			out = append(out, p)
		}
		return nil
	})
	return out
}
