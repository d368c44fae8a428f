package build

import (
	"errors"
	"fmt"

	graphlib "github.com/dominikbraun/graph"

	"surgelsp/internal/diag"
	"surgelsp/internal/project"
)

// packageOrder sorts manifest packages so that every package comes after
// the packages it requires. Ties are broken by name.
func packageOrder(packages []project.ManifestPackage) ([]project.ManifestPackage, error) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed(), graphlib.PreventCycles())
	byName := make(map[string]project.ManifestPackage, len(packages))
	for _, p := range packages {
		byName[p.Name] = p
		if err := g.AddVertex(p.Name); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, err
		}
	}
	for _, p := range packages {
		for _, req := range p.Requirements {
			if _, ok := byName[req]; !ok {
				return nil, &PackageError{Package: p.Name, Err: fmt.Errorf("requires %s, which is not in the manifest", req)}
			}
			err := g.AddEdge(req, p.Name)
			switch {
			case err == nil, errors.Is(err, graphlib.ErrEdgeAlreadyExists):
			case errors.Is(err, graphlib.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("dependency cycle: %s and %s require each other", p.Name, req)
			default:
				return nil, err
			}
		}
	}
	names, err := graphlib.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("order dependencies: %w", err)
	}
	out := make([]project.ManifestPackage, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out, nil
}

// moduleOrder sorts the modules of one package so that imported modules are
// checked first. An import closing a cycle is reported and left out of the
// graph; the module then sees its own package partially checked.
func moduleOrder(mods []*parsedModule) ([]*parsedModule, []diag.Diagnostic) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed(), graphlib.PreventCycles())
	byName := make(map[string]*parsedModule, len(mods))
	for _, m := range mods {
		byName[m.name] = m
		_ = g.AddVertex(m.name)
	}
	var diags []diag.Diagnostic
	for _, m := range mods {
		for _, imp := range m.file.Imports {
			if _, local := byName[imp.Path]; !local || imp.Path == m.name {
				continue
			}
			err := g.AddEdge(imp.Path, m.name)
			if errors.Is(err, graphlib.ErrEdgeCreatesCycle) {
				diags = append(diags, diag.New(diag.SevError, diag.ProjImportCycle, imp.Span,
					fmt.Sprintf("import of %s creates an import cycle", imp.Path)).InModule(m.name, m.inputPath))
			}
		}
	}
	names, err := graphlib.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		// граф ацикличен по построению; порядок файлов как запасной вариант
		return mods, diags
	}
	out := make([]*parsedModule, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out, diags
}
