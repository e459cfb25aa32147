// Package csvinfer inspects a CSV file and renders its schema as a
// "name: Type, ..." field list ready to seed a record definition.
package csvinfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"github.com/xtgo/set"
)

// sampleRows bounds how many rows are examined per column.
const sampleRows = 100

// InferTableFromFile reads the header and a sample of rows and infers a
// per-column type: Int64, Float64, Bool, Timestamp, else String.
func InferTableFromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "load %s", path)
	}
	defer f.Close()
	return inferTable(f, path)
}

func inferTable(r io.Reader, path string) (string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return "", errors.Wrapf(err, "read header of %s", path)
	}

	columns := make([][]string, len(header))
	for row := 0; row < sampleRows; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrapf(err, "read %s", path)
		}
		for i, cell := range record {
			if i < len(columns) {
				columns[i] = append(columns[i], cell)
			}
		}
	}

	names := make([]string, len(header))
	for i, cell := range header {
		names[i] = columnName(cell)
	}
	uniquify(names)

	parts := make([]string, len(header))
	for i, name := range names {
		parts[i] = name + ": " + inferColumn(columns[i])
	}
	return strings.Join(parts, ", "), nil
}

// uniquify suffixes repeated column names so they can seed a record
// definition, which rejects duplicate fields.
func uniquify(names []string) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	if set.Uniq(sort.StringSlice(sorted)) == len(sorted) {
		return
	}
	seen := make(map[string]int)
	for i, name := range names {
		if seen[name] > 0 {
			names[i] = fmt.Sprintf("%s_%d", name, seen[name])
		}
		seen[name]++
	}
}

// columnName sanitizes a header cell into a lower-case identifier.
func columnName(cell string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(cell) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "column"
	}
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = "c" + name
	}
	return name
}

func inferColumn(values []string) string {
	if len(values) == 0 {
		return "String"
	}
	isInt, isFloat, isBool, isTime := true, true, true, true
	nonEmpty := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		nonEmpty = true
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if lower := strings.ToLower(v); lower != "true" && lower != "false" {
				isBool = false
			}
		}
		if isTime && !isInt && !isFloat {
			if _, err := dateparse.ParseAny(v); err != nil {
				isTime = false
			}
		}
	}
	switch {
	case !nonEmpty:
		return "String"
	case isBool:
		return "Bool"
	case isInt:
		return "Int64"
	case isFloat:
		return "Float64"
	case isTime:
		return "Timestamp"
	default:
		return "String"
	}
}
