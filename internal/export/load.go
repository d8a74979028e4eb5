package export

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[record.Category]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[record.Category]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiled := make(map[record.Category]*jsonschema.Schema, len(record.Categories))

		for _, c := range record.Categories {
			name := "schemas/" + c.FileName()
			data, err := schemaFS.ReadFile(name)
			if err != nil {
				schemasErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
				schemasErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
			schema, err := compiler.Compile(name)
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[c] = schema
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// Dataset is every category loaded from a data directory
type Dataset struct {
	Properties []*record.Listing
	Projects   []*record.Project
	Articles   []*record.Article
	Agents     []*record.Agent
}

// Total is the number of records across categories
func (d *Dataset) Total() int {
	return len(d.Properties) + len(d.Projects) + len(d.Articles) + len(d.Agents)
}

// Counts returns the number of records per category
func (d *Dataset) Counts() map[record.Category]int {
	return map[record.Category]int{
		record.CategoryListings: len(d.Properties),
		record.CategoryProjects: len(d.Projects),
		record.CategoryArticles: len(d.Articles),
		record.CategoryAgents:   len(d.Agents),
	}
}

// Load reads the per-category files under dataDir/json. A missing file
// yields an empty category; a file that does not match its schema is an
// error.
func Load(dataDir string) (*Dataset, error) {
	compiled, err := compileSchemas()
	if err != nil {
		return nil, apperrors.NewConfiguration("invalid embedded schema", err)
	}

	jsonDir := filepath.Join(dataDir, "json")
	d := &Dataset{}
	targets := map[record.Category]any{
		record.CategoryListings: &d.Properties,
		record.CategoryProjects: &d.Projects,
		record.CategoryArticles: &d.Articles,
		record.CategoryAgents:   &d.Agents,
	}

	for _, c := range record.Categories {
		path := filepath.Join(jsonDir, c.FileName())
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.ForExporter().Debug().Str("file", path).Msg("no data file, category is empty")
			continue
		}
		if err != nil {
			return nil, apperrors.NewPersistence("exporter", "failed to read "+path, err)
		}

		var doc any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, apperrors.NewValidation("exporter", fmt.Sprintf("%s is not valid JSON: %v", path, err))
		}
		if err := compiled[c].Validate(doc); err != nil {
			return nil, apperrors.NewValidation("exporter", fmt.Sprintf("%s does not match schema: %v", path, err))
		}
		if err := json.Unmarshal(data, targets[c]); err != nil {
			return nil, apperrors.NewValidation("exporter", fmt.Sprintf("failed to decode %s: %v", path, err))
		}
	}
	return d, nil
}
