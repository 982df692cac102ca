// Package validate checks record files written by the file sink: every line
// must parse, lie inside its tile, and belong to the tile its file name
// claims.
package validate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/forma-etl/internal/adapter/file"
	"github.com/couchcryptid/forma-etl/internal/domain"
	gojson "github.com/goccy/go-json"
)

// maxIssues caps the issues kept per file; the count keeps going.
const maxIssues = 20

// Options configures the checks.
type Options struct {
	SRes      string // spatial resolution of the records, e.g. "1000"
	Neighbors int    // neighbor radius used for the run; 0 skips the count check
}

// Issue is one failed check.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// FileReport is the outcome for one record file.
type FileReport struct {
	Name        string  `json:"name"`
	Key         string  `json:"key,omitempty"`
	Lines       int     `json:"lines"`
	Pixels      int     `json:"pixels"`
	IssueCount  int     `json:"issue_count"`
	Issues      []Issue `json:"issues,omitempty"`
	FireRecords int     `json:"fire_records"`
}

// Report aggregates the per-file results.
type Report struct {
	Files  []FileReport `json:"files"`
	Lines  int          `json:"lines"`
	Issues int          `json:"issues"`
}

// Passed reports whether no check failed.
func (r Report) Passed() bool { return r.Issues == 0 }

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	data, err := gojson.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Dir checks every record file in dir, in name order.
func Dir(dir string, opts Options) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("list record dir: %w", err)
	}
	var rep Report
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != file.RecordExt {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return rep, fmt.Errorf("open record file: %w", err)
		}
		fr, err := Records(e.Name(), f, opts)
		f.Close()
		if err != nil {
			return rep, err
		}
		rep.add(fr)
	}
	return rep, nil
}

func (r *Report) add(fr FileReport) {
	r.Files = append(r.Files, fr)
	r.Lines += fr.Lines
	r.Issues += fr.IssueCount
}

// Records checks the lines read from rd. name is the file name; when it
// follows the "h_v_period.tsv" pattern each record's tile is checked against
// it.
func Records(name string, rd io.Reader, opts Options) (FileReport, error) {
	edge, err := domain.PixelsPerTile(opts.SRes)
	if err != nil {
		return FileReport{}, err
	}
	fr := FileReport{Name: name}
	tileH, tileV, hasKey := parseKey(name)
	if hasKey {
		fr.Key = strings.ReplaceAll(strings.TrimSuffix(name, file.RecordExt), "_", ":")
	}

	issue := func(line int, format string, args ...any) {
		fr.IssueCount++
		if len(fr.Issues) < maxIssues {
			fr.Issues = append(fr.Issues, Issue{Line: line, Message: fmt.Sprintf(format, args...)})
		}
	}

	maxNeighbors := (2*opts.Neighbors+1)*(2*opts.Neighbors+1) - 1
	seen := make(map[[2]int]int)
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		fr.Lines++
		n := fr.Lines
		rec, err := domain.ParseRecordLine(sc.Text())
		if err != nil {
			issue(n, "%v", err)
			continue
		}
		c := rec.Coord
		if c.TileH < 0 || c.TileH > domain.MaxTileH || c.TileV < 0 || c.TileV > domain.MaxTileV {
			issue(n, "tile %d/%d outside the MODIS grid", c.TileH, c.TileV)
		}
		if hasKey && (c.TileH != tileH || c.TileV != tileV) {
			issue(n, "tile %d/%d in file for tile %d/%d", c.TileH, c.TileV, tileH, tileV)
		}
		if c.Col < 0 || c.Col >= edge || c.Row < 0 || c.Row >= edge {
			issue(n, "pixel %d,%d outside a %d-pixel tile", c.Col, c.Row, edge)
		}
		px := [2]int{c.Col, c.Row}
		if first, dup := seen[px]; dup {
			issue(n, "pixel %d,%d repeats line %d", c.Col, c.Row, first)
		} else {
			seen[px] = n
		}
		if opts.Neighbors > 0 && (rec.Stats.Count < 0 || rec.Stats.Count > maxNeighbors) {
			issue(n, "%d neighbors exceeds %d for radius %d", rec.Stats.Count, maxNeighbors, opts.Neighbors)
		}
		if rec.Stats.Count == 0 && rec.Stats != (domain.NeighborStats{}) {
			issue(n, "no neighbors but non-zero neighbor statistics")
		}
		if rec.Value.FireOrZero().Count > 0 {
			fr.FireRecords++
		}
	}
	if err := sc.Err(); err != nil {
		return fr, fmt.Errorf("read %s: %w", name, err)
	}
	fr.Pixels = len(seen)
	return fr, nil
}

// parseKey reads tile coordinates from a "h_v_period.tsv" name.
func parseKey(name string) (tileH, tileV int, ok bool) {
	parts := strings.Split(strings.TrimSuffix(name, file.RecordExt), "_")
	if len(parts) != 3 {
		return 0, 0, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, false
		}
		nums[i] = v
	}
	return nums[0], nums[1], true
}

// FailedFiles lists the names of files with at least one issue.
func (r Report) FailedFiles() []string {
	var out []string
	for _, f := range r.Files {
		if f.IssueCount > 0 {
			out = append(out, f.Name)
		}
	}
	slices.Sort(out)
	return out
}
