// Command legsmi imports glTF assets into the engine's canonical
// mesh/material/texture/skeleton/scene manifests (§4.8, §6).
//
// Usage:
//
//	legsmi <mesh|scene|list> [--data-root=dir] [--dest-dir=dir] [--overwrite] [--verbose] <path.gltf> [indices...]
//
// `list` prints the scenes and meshes a document offers without
// writing any files. `mesh`/`scene` import the named indices (all of
// them, if none are given).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/qmuntal/gltf"

	"github.com/kestrel3d/kestrel/internal/gltfimport"
	"github.com/kestrel3d/kestrel/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}
	command := args[0]
	switch command {
	case "mesh", "scene", "list":
	default:
		fmt.Fprintf(os.Stderr, "legsmi: unknown command %q\n", command)
		usage()
		return 1
	}

	fs := flag.NewFlagSet("legsmi "+command, flag.ContinueOnError)
	dataRoot := fs.String("data-root", "", "directory the glTF file's relative URIs resolve against (defaults to the glTF's own directory)")
	destDir := fs.String("dest-dir", ".", "directory manifests and binary assets are written into")
	overwrite := fs.Bool("overwrite", false, "rewrite files that already exist at the destination")
	verbose := fs.Bool("verbose", false, "log every file read and written")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "legsmi: missing glTF path")
		usage()
		return 1
	}
	gltfPath := rest[0]
	indexArgs := rest[1:]

	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(level)

	doc, err := gltfimport.Open(gltfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "legsmi: %v\n", err)
		return 1
	}

	if command == "list" {
		scenes, meshes := gltfimport.List(doc)
		for _, s := range scenes {
			fmt.Printf("scene %d\t%s\n", s.Index, s.Name)
		}
		for _, m := range meshes {
			fmt.Printf("mesh %d\t%s\n", m.Index, m.Name)
		}
		return 0
	}

	sourceDir := *dataRoot
	if sourceDir == "" {
		sourceDir = filepath.Dir(gltfPath)
	}
	imp := gltfimport.New(gltfimport.Options{
		SourceDir: sourceDir,
		DestDir:   *destDir,
		Overwrite: *overwrite,
		Logger:    log,
	})

	var total int
	switch command {
	case "mesh":
		total = len(doc.Meshes)
	case "scene":
		total = len(doc.Scenes)
	}
	indices, err := parseIndices(indexArgs, total)
	if err != nil {
		fmt.Fprintf(os.Stderr, "legsmi: %v\n", err)
		return 1
	}

	for _, idx := range indices {
		var importErr error
		switch command {
		case "mesh":
			importErr = importOneMesh(imp, doc, idx)
		case "scene":
			_, importErr = imp.ImportScene(doc, idx)
		}
		if importErr != nil {
			fmt.Fprintf(os.Stderr, "legsmi: %v\n", importErr)
			return 1
		}
	}
	return 0
}

func importOneMesh(imp *gltfimport.Importer, doc *gltf.Document, meshIndex int) error {
	_, err := imp.ImportMesh(doc, meshIndex, gltfimport.MeshSkin(doc, meshIndex))
	return err
}

// parseIndices parses explicit index arguments, or returns every index
// in [0, total) when none are given.
func parseIndices(args []string, total int) ([]int, error) {
	if len(args) == 0 {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	indices := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", a, err)
		}
		indices[i] = v
	}
	return indices, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: legsmi <mesh|scene|list> [--data-root=dir] [--dest-dir=dir] [--overwrite] [--verbose] <path.gltf> [indices...]")
}
