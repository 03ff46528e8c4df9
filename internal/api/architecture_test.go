package api

import (
	"testing"

	"golang.org/x/tools/go/packages"

	"kennelcore/internal/archtest"
)

func TestAdaptersAvoidStorageDrivers(t *testing.T) {
	for _, dir := range []string{".", "../backups", "../app"} {
		archtest.AssertNoDirectImports(t, dir, archtest.InfraImport, dir+" reaches drivers through core and blob")
	}
}

// TestDriversReachedOnlyThroughCoreAndBlob checks the whole import graph,
// tests included, so a helper package cannot smuggle a driver into the API,
// the backup worker, the server or the CLI.
func TestDriversReachedOnlyThroughCoreAndBlob(t *testing.T) {
	pkgs := archtest.LoadModule(t, packages.NeedName|packages.NeedImports|packages.NeedDeps)
	archtest.AssertReachesOnlyThrough(t, pkgs,
		archtest.Gateway("kennelcore/internal/core", "kennelcore/internal/blob"),
		archtest.InfraImport)
}
