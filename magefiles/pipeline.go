//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search fetches references for $TOPIC from $JOURNAL (default arxiv) and
// saves them to output/references.yaml.
func Search() error {
	mg.Deps(Build, Init)
	topic := os.Getenv("TOPIC")
	if topic == "" {
		return fmt.Errorf("set TOPIC to the search topic")
	}
	return sh.RunV(binPath, "search",
		"--topic", topic,
		"--journal", envOr("JOURNAL", "arxiv"),
		"--output", "output/references.yaml")
}

// Essay generates an essay for $TOPIC from $JOURNAL in $STYLE (default mla)
// and writes the run to output/run.yaml.
func Essay() error {
	mg.Deps(Build, Init)
	topic := os.Getenv("TOPIC")
	if topic == "" {
		return fmt.Errorf("set TOPIC to the essay topic")
	}
	return sh.RunV(binPath, "generate",
		"--topic", topic,
		"--journal", envOr("JOURNAL", "arxiv"),
		"--style", envOr("STYLE", "mla"),
		"--output", "output/run.yaml",
		"--bib", "output/references.bib")
}

// Serve runs the web front end on $ADDR (default :8080).
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "serve", "--addr", envOr("ADDR", ":8080"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
