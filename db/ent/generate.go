//go:build ignore

// Run with: go run ./db/ent/generate.go
package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

func main() {
	err := entc.Generate(
		"./db/ent/schema",
		&gen.Config{
			Target:  "gen/ent",
			Package: "github.com/kattabharath12/tax-1040/gen/ent",
			Schema:  "github.com/kattabharath12/tax-1040/db/ent/schema",
		},
	)
	if err != nil {
		log.Fatal(err)
	}
}
