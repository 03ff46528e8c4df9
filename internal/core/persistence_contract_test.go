package core

import (
	"go/types"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"

	"kennelcore/internal/archtest"
)

const persistencePrefix = "kennelcore/internal/infra/persistence/"

// TestPersistenceBackendsImplementStore loads the module's types and checks
// that each persistence package's Store satisfies domain.PersistentStore and
// that no other package grows a backend of its own.
func TestPersistenceBackendsImplementStore(t *testing.T) {
	pkgs := archtest.LoadModule(t, packages.NeedName|packages.NeedImports|packages.NeedTypes)

	var persistentStore *types.Interface
	for _, p := range pkgs {
		if p.PkgPath != "kennelcore/pkg/domain" || p.Types == nil {
			continue
		}
		obj := p.Types.Scope().Lookup("PersistentStore")
		if obj == nil {
			t.Fatalf("domain.PersistentStore not found")
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			t.Fatalf("domain.PersistentStore is not an interface")
		}
		persistentStore = iface
		break
	}
	if persistentStore == nil {
		t.Fatalf("failed to resolve PersistentStore interface")
	}

	backends := map[string]bool{
		persistencePrefix + "memory":   false,
		persistencePrefix + "sqlite":   false,
		persistencePrefix + "postgres": false,
	}
	var unexpected []string
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		scope := p.Types.Scope()
		for _, name := range scope.Names() {
			named, ok := scope.Lookup(name).Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			implements := types.Implements(types.NewPointer(named), persistentStore)
			_, backend := backends[p.PkgPath]
			switch {
			case backend && name == "Store":
				if !implements {
					t.Errorf("%s.Store does not implement domain.PersistentStore", p.PkgPath)
				}
				backends[p.PkgPath] = true
			case implements && !backend:
				unexpected = append(unexpected, p.PkgPath+"."+name)
			}
		}
	}
	for path, found := range backends {
		if !found {
			t.Errorf("%s has no Store type", path)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		t.Fatalf("unexpected PersistentStore implementations outside %s:\n%s", persistencePrefix, strings.Join(unexpected, "\n"))
	}
}
