package cli

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/pipeline"
)

// parseSourceArg splits "name@version". The version separator is the last
// "@" after the first character, so "@scope/name@1.2.3" works.
func parseSourceArg(arg string) (pipeline.Source, error) {
	arg = strings.TrimSpace(arg)
	i := strings.LastIndex(arg, "@")
	if i <= 0 || i == len(arg)-1 {
		return pipeline.Source{}, brerrors.New(brerrors.ErrCodeInvalidInput, "expected name@version, got %q", arg)
	}
	return newSource(arg[:i], arg[i+1:])
}

func newSource(name, version string) (pipeline.Source, error) {
	name, version = strings.TrimSpace(name), strings.TrimSpace(version)
	if err := brerrors.ValidatePackageName(name); err != nil {
		return pipeline.Source{}, err
	}
	if version == "" {
		return pipeline.Source{}, brerrors.New(brerrors.ErrCodeInvalidVersion, "missing version for %s", name)
	}
	return pipeline.Source{Name: name, Version: version}, nil
}

// readSources parses a package,version CSV. A header row is detected by its
// first cell being "package" or "name". Blank lines and lines starting with
// "#" are skipped.
func readSources(r io.Reader) ([]pipeline.Source, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []pipeline.Source
	for n := 1; ; n++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, brerrors.Wrap(brerrors.ErrCodeInvalidInput, err, "read sources")
		}
		if n == 1 && len(row) > 0 {
			switch strings.ToLower(strings.TrimSpace(row[0])) {
			case "package", "name":
				continue
			}
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		var src pipeline.Source
		switch len(row) {
		case 1:
			src, err = parseSourceArg(row[0])
		default:
			src, err = newSource(row[0], row[1])
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, brerrors.Wrap(brerrors.ErrCodeInvalidInput, err, "sources line %d", line)
		}
		out = append(out, src)
	}
	return out, nil
}
