package main

import (
	"bufio"
	"bytes"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/acksell/docddb/dynamodb/schema"
)

const schemaFilename = "schema_dynamodb.yaml"

// discoverSchemas finds every schema_dynamodb.yaml below root. It asks git
// first, which honours .gitignore, and walks the tree when that fails.
func discoverSchemas(root string) ([]string, error) {
	if files, err := discoverWithGit(root); err == nil && len(files) > 0 {
		return files, nil
	}
	return discoverWithWalk(root)
}

func discoverWithGit(root string) ([]string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, err
	}
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if filepath.Base(line) == schemaFilename {
			files = append(files, filepath.Join(root, line))
		}
	}
	return files, scanner.Err()
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".ddb":         true,
}

func discoverWithWalk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == schemaFilename {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// loadSchemas merges the tables of several schema files into one schema.
func loadSchemas(paths []string) (*schema.Schema, error) {
	merged := &schema.Schema{}
	for _, p := range paths {
		s, err := schema.Load(p)
		if err != nil {
			return nil, err
		}
		merged.Tables = append(merged.Tables, s.Tables...)
	}
	if err := schema.Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}
