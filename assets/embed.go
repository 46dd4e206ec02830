// Package assets embeds the static data the server ships with: one word
// list per difficulty tier and the SQL migrations for each supported store.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed words/easy.txt words/moderate.txt words/hard.txt
var wordsFS embed.FS

// Migrations holds goose migrations under migrations/sqlite and migrations/postgres.
//
//go:embed migrations
var Migrations embed.FS

func readLines(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// WordList returns the embedded list for a tier name ("easy", "moderate", "hard").
func WordList(tier string) ([]string, error) {
	return readLines(wordsFS, "words/"+tier+".txt")
}

// ReadWordFile reads a word list from an arbitrary filesystem using the same
// rules as the embedded lists (trimmed, lowercased, '#' comments skipped).
func ReadWordFile(fsys fs.FS, name string) ([]string, error) {
	return readLines(fsys, name)
}

// MigrationsFor returns the migration directory for a goose dialect.
func MigrationsFor(dialect string) (fs.FS, error) {
	dir := "migrations/sqlite"
	if dialect == "postgres" {
		dir = "migrations/postgres"
	}
	return fs.Sub(Migrations, dir)
}
