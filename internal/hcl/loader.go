package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/fsutil"
	"github.com/vk/synnia/internal/recipe"
)

// Loader reads recipe manifests from .hcl files.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths. Directories are walked
// recursively; paths that do not exist are skipped. Recipe ids must be unique
// across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*recipe.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var defs []*recipe.Definition
	seen := make(map[string]string)
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		fileDefs, err := l.decode(ctx, hclFile, file)
		if err != nil {
			return nil, err
		}
		for _, def := range fileDefs {
			if prev, dup := seen[def.ID]; dup {
				return nil, fmt.Errorf("recipe %q in %s is already defined in %s", def.ID, file, prev)
			}
			seen[def.ID] = file
		}
		defs = append(defs, fileDefs...)
	}

	logger.Debug("HCL loading complete.", "recipes", len(defs))
	return defs, nil
}

// LoadBytes parses a single manifest held in memory.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) ([]*recipe.Definition, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.decode(ctx, hclFile, filename)
}

func (l *Loader) decode(ctx context.Context, f *hcl.File, filename string) ([]*recipe.Definition, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	defs := make([]*recipe.Definition, 0, len(root.Recipes))
	for _, r := range root.Recipes {
		def, err := translateRecipe(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// findAllHCLFiles returns every .hcl file under paths, without duplicates.
func findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return all, nil
}
