package archtest

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// LoadModule loads every package of the module, test variants included.
func LoadModule(t testing.TB, mode packages.LoadMode) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{Mode: mode, Tests: true}
	pkgs, err := packages.Load(cfg, "kennelcore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatalf("load packages: nothing matched kennelcore/...")
	}
	return pkgs
}

// Gateway matches the named packages together with their subpackages and
// test variants.
func Gateway(paths ...string) func(string) bool {
	return func(path string) bool {
		for _, p := range paths {
			if path == p || strings.HasPrefix(path, p+"/") ||
				strings.HasPrefix(path, p+"_test") || strings.HasPrefix(path, p+".test") {
				return true
			}
		}
		return false
	}
}

// AssertReachesOnlyThrough fails when a loaded package reaches a forbidden
// package without passing through a gateway. pkgs must be loaded with
// NeedImports and NeedDeps.
func AssertReachesOnlyThrough(t testing.TB, pkgs []*packages.Package, gateway, forbidden func(string) bool) {
	t.Helper()
	if viols := gatewayViolations(pkgs, gateway, forbidden); len(viols) > 0 {
		for _, v := range viols {
			t.Errorf("forbidden dependency: %s", v)
		}
		t.Fatalf("found %d packages bypassing the gateways", len(viols))
	}
}

// gatewayViolations walks the module part of each root's import graph and
// stops at gateways. Roots that are themselves gateways or forbidden are
// skipped.
func gatewayViolations(pkgs []*packages.Package, gateway, forbidden func(string) bool) []string {
	seen := make(map[string]struct{})
	for _, root := range pkgs {
		if gateway(root.PkgPath) || forbidden(root.PkgPath) {
			continue
		}
		visited := make(map[string]bool)
		var walk func(p *packages.Package, via string)
		walk = func(p *packages.Package, via string) {
			for path, dep := range p.Imports {
				if visited[path] {
					continue
				}
				visited[path] = true
				switch {
				case forbidden(path):
					seen[root.PkgPath+": "+via+path] = struct{}{}
				case gateway(path) || !ModuleImport(path) || dep == nil:
				default:
					walk(dep, via+path+" -> ")
				}
			}
		}
		walk(root, "")
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
