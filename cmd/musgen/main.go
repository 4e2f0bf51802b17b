package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/AvazbekNurmatov/lex-ai/core"
	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
)

// Regenerates the row serializers stored in badger:
//
//	go run ./cmd/musgen
func main() {
	out := flag.String("out", "core/records_mus.gen.go", "generated file, relative to the module root")
	flag.Parse()

	root, err := moduleRoot()
	if err != nil {
		log.Fatal(err)
	}

	bs, err := generate()
	if err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, *out), bs, 0644); err != nil {
		log.Fatal(err)
	}
}

func generate() ([]byte, error) {
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/AvazbekNurmatov/lex-ai/core"),
	)
	if err != nil {
		return nil, err
	}

	g.AddDefinedType(reflect.TypeFor[core.ID]())

	// SourceDocID, ParagraphID, Text
	err = g.AddStruct(reflect.TypeFor[core.ParagraphRecord](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		return nil, err
	}

	return g.Generate()
}

// moduleRoot walks up from the working directory to the directory holding go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
