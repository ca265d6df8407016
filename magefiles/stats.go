//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

type packageStats struct {
	Package string `json:"package"`
	Prod    int    `json:"go_loc_prod"`
	Test    int    `json:"go_loc_test"`
}

// Stats prints Go lines of code per package and documentation word counts
// as JSON lines.
func Stats() error {
	files, err := doublestar.FilepathGlob("**/*.go", doublestar.WithFilesOnly())
	if err != nil {
		return err
	}
	byPkg := map[string]*packageStats{}
	var prodLines, testLines int
	for _, path := range files {
		if skipStats(path) {
			continue
		}
		count, err := countLines(path)
		if err != nil {
			continue
		}
		dir := filepath.ToSlash(filepath.Dir(path))
		ps := byPkg[dir]
		if ps == nil {
			ps = &packageStats{Package: dir}
			byPkg[dir] = ps
		}
		if strings.HasSuffix(path, "_test.go") {
			ps.Test += count
			testLines += count
		} else {
			ps.Prod += count
			prodLines += count
		}
	}

	dirs := make([]string, 0, len(byPkg))
	for dir := range byPkg {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	enc := json.NewEncoder(os.Stdout)
	for _, dir := range dirs {
		if err := enc.Encode(byPkg[dir]); err != nil {
			return err
		}
	}

	docWords, err := countWordsInGlob("*.md")
	if err != nil {
		return err
	}
	line, err := json.Marshal(map[string]int{
		"go_loc_prod": prodLines,
		"go_loc_test": testLines,
		"go_loc":      prodLines + testLines,
		"doc_wc":      docWords,
	})
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

// skipStats drops build tooling and directories the module does not own.
func skipStats(path string) bool {
	p := filepath.ToSlash(path)
	for _, prefix := range []string{"magefiles/", "vendor/", "_", binaryDir + "/"} {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

func countWordsInGlob(pattern string) (int, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, err
	}
	total := 0
	for _, path := range matches {
		words, err := countWordsInFile(path)
		if err != nil {
			continue
		}
		total += words
	}
	return total, nil
}

func countWordsInFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	count := 0
	inWord := false
	for _, r := range string(data) {
		if unicode.IsSpace(r) {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count, nil
}
