package suggested

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/progress"
)

// ReadCSV parses question_id,view_count rows. A header row is skipped, as
// are rows whose id or count is not a number.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Row
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 2 {
			continue
		}
		id, err1 := strconv.Atoi(strings.TrimSpace(rec[0]))
		views, err2 := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err1 != nil || err2 != nil {
			if line > 1 {
				log.WithField("line", line).Debug("skipping malformed csv row")
			}
			continue
		}
		rows = append(rows, Row{QuestionID: id, ViewCount: views})
	}
}

// DefaultPattern matches CSV files at any depth, whatever the case of the
// extension.
const DefaultPattern = "**/*.[cC][sS][vV]"

// CSVFiles returns path itself if it is a file, or the files below it
// matching the doublestar pattern, sorted by path. An empty pattern means
// DefaultPattern.
func CSVFiles(path, pattern string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	var files []string
	err = doublestar.GlobWalk(os.DirFS(path), pattern, func(rel string, d fs.DirEntry) error {
		if !d.IsDir() {
			files = append(files, filepath.Join(path, filepath.FromSlash(rel)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ImportPath imports every CSV file under path matching pattern and returns
// the number of rows imported. reporter may be nil.
func (s *Store) ImportPath(ctx context.Context, path, pattern string, reporter progress.Reporter) (int, error) {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	files, err := CSVFiles(path, pattern)
	if err != nil {
		return 0, fmt.Errorf("listing csv files: %w", err)
	}

	reporter.Start(len(files))
	defer reporter.Finish()

	total := 0
	for i, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return total, err
		}
		rows, err := ReadCSV(f)
		f.Close()
		if err != nil {
			return total, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := s.Import(ctx, rows); err != nil {
			return total, err
		}
		total += len(rows)
		reporter.Update(i+1, filepath.Base(name))
		log.WithFields(log.Fields{"file": name, "rows": len(rows)}).Debug("imported csv")
	}
	return total, nil
}
