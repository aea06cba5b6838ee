package kanban

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// columnsFile is the on-disk layout shared by the TOML and YAML formats:
//
//	[[column]]
//	id = "todo"
//	title = "TO DO"
//	aliases = ["To Do", "Open"]
type columnsFile struct {
	Columns []ColumnDef `toml:"column" yaml:"column"`
}

// LoadColumns reads column definitions from a TOML or YAML file, chosen by
// extension (.toml, .yaml, .yml). An empty path returns DefaultColumns.
func LoadColumns(path string) ([]ColumnDef, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultColumns(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read columns %s: %w", path, err)
	}
	defs, err := ParseColumns(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", path, err)
	}
	return defs, nil
}

// ParseColumns decodes and validates column definitions. format is a file
// extension with or without the leading dot.
func ParseColumns(data []byte, format string) ([]ColumnDef, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty column file", ErrInvalidColumns)
	}
	var f columnsFile
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported column file format %q", format)
	}
	for i := range f.Columns {
		if f.Columns[i].Title == "" {
			f.Columns[i].Title = strings.ToUpper(f.Columns[i].PrimaryStatus())
		}
	}
	if err := ValidateColumns(f.Columns); err != nil {
		return nil, err
	}
	return f.Columns, nil
}
