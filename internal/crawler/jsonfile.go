package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	internalErrors "harshagw/searchcore/internal/errors"
	"harshagw/searchcore/internal/search"
)

// JSONFileTypeTag is the registry tag of the JSON file crawler.
const JSONFileTypeTag = "json_file"

// PropPath names the file the JSON file crawler reads.
const PropPath = "crawler.path"

// JSONFile reads documents from a file holding a JSON array of
// {"id", "class", "fields"} objects. The path comes from the crawler.path
// property, falling back to the path given at construction.
type JSONFile struct {
	path   string
	logger *zap.Logger
}

// NewJSONFile creates a JSON file crawler with a default path.
func NewJSONFile(path string, opts ...Option) *JSONFile {
	return &JSONFile{path: path, logger: buildOptions(opts).logger}
}

// Crawl reads and decodes the file.
func (c *JSONFile) Crawl(ctx context.Context, props search.Properties) ([]search.Document, error) {
	path := c.path
	if p, ok := props.Get(PropPath); ok {
		path = p
	}
	if path == "" {
		return nil, internalErrors.NewMissingPropertyError(PropPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := ReadDocuments(path)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("json file crawled", zap.String("path", path), zap.Int("documents", len(docs)))
	return docs, nil
}

// ReadDocuments decodes a JSON array of documents from path.
func ReadDocuments(path string) ([]search.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var docs []search.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, d := range docs {
		if d.ClassName == "" {
			return nil, internalErrors.NewValidationError("class", fmt.Sprintf("document %d in %s has no class", d.ID, path))
		}
	}
	return docs, nil
}
