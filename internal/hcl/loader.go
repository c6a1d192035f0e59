package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/vk/isoflux/internal/fsutil"
	"github.com/vk/isoflux/internal/network"
	"github.com/vk/isoflux/internal/schema"
)

const fileExtension = ".hcl"

// Loader is the HCL-specific implementation of the network.Loader interface.
type Loader struct{}

var _ network.Loader = (*Loader)(nil)

// NewLoader creates a new HCL network loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from paths and merges all blocks
// into one validated Network. Any block may live in any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*network.Network, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files found", network.ErrInvalidNetwork, fileExtension)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	n := network.New()
	parser := hclparse.NewParser()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if err := l.merge(ctx, n, &root); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"reactions", len(n.Reactions),
		"metabolites", len(n.Metabolites),
		"measured_fluxes", len(n.MeasuredFluxes),
		"fragments", len(n.Fragments),
		"tracers", len(n.Tracers),
		"simulations", len(n.Simulations),
	)
	return n, nil
}

func (l *Loader) merge(ctx context.Context, n *network.Network, root *schema.File) error {
	for _, r := range root.Reactions {
		rxn, err := translateReaction(ctx, r)
		if err != nil {
			return err
		}
		n.Reactions = append(n.Reactions, rxn)
	}
	for _, m := range root.Metabolites {
		n.Metabolites = append(n.Metabolites, translateMetabolite(m))
	}
	for _, f := range root.MeasuredFluxes {
		n.MeasuredFluxes = append(n.MeasuredFluxes, translateMeasuredFlux(f))
	}
	for _, f := range root.Fragments {
		n.Fragments = append(n.Fragments, translateFragment(f))
	}
	for _, t := range root.Tracers {
		n.Tracers = append(n.Tracers, translateTracer(t))
	}
	for _, s := range root.Simulations {
		if _, dup := n.Simulations[s.ID]; dup {
			return fmt.Errorf("%w: duplicate simulation %q", network.ErrInvalidNetwork, s.ID)
		}
		n.Simulations[s.ID] = translateSimulation(s)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat, de-duplicated
// list of all .hcl files found. Unlike configuration discovery, a missing
// input path is an error.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(path), fileExtension) {
				add(path)
			}
			continue
		}

		found, err := fsutil.FindFiles(path, fileExtension)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
