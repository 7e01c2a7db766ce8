package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrRecordNotFound is returned by typed repositories when no record exists at a path.
var ErrRecordNotFound = errors.New("record not found")

// ErrInvalidPath is returned for empty paths or paths containing reserved characters.
var ErrInvalidPath = errors.New("invalid record path")

// RecordRepository is a hierarchical key-value store of JSON documents addressed by
// slash separated paths. Reading a path assembles the document stored at that path
// together with every descendant document, descendants overriding parent fields.
// Writing a path also removes the same field from any ancestor document, so a
// field embedded in a parent never shadows its own row.
type RecordRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db, now: time.Now}
}

type recordRow struct {
	Path  string `db:"path"`
	Value []byte `db:"value"`
}

// Get decodes the subtree rooted at path into dest. It reports false when nothing is stored there.
func (r *RecordRepository) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	path, err := CleanPath(path)
	if err != nil {
		return false, err
	}
	const query = `SELECT path, value FROM records WHERE path = $1 OR starts_with(path, $2)`
	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, path, path+"/"); err != nil {
		return false, fmt.Errorf("read records %s: %w", path, err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	tree, err := assemble(path, rows)
	if err != nil {
		return false, err
	}
	payload, err := json.Marshal(tree)
	if err != nil {
		return false, fmt.Errorf("encode subtree %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode subtree %s: %w", path, err)
	}
	return true, nil
}

// Children lists the distinct direct child keys below path.
func (r *RecordRepository) Children(ctx context.Context, path string) ([]string, error) {
	path, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	prefix := path + "/"
	const query = `SELECT DISTINCT split_part(substr(path, length($1) + 1), '/', 1) AS child
FROM records WHERE starts_with(path, $1) ORDER BY child ASC`
	var children []string
	if err := r.db.SelectContext(ctx, &children, query, prefix); err != nil {
		return nil, fmt.Errorf("list children %s: %w", path, err)
	}
	return children, nil
}

// Update applies a multi-path update atomically. Each path's subtree is replaced
// by the given value and any copy embedded in an ancestor document is removed; a
// nil value deletes the subtree. Paths in one update must not overlap.
func (r *RecordRepository) Update(ctx context.Context, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	paths := make([]string, 0, len(updates))
	values := make(map[string]interface{}, len(updates))
	for raw, value := range updates {
		path, err := CleanPath(raw)
		if err != nil {
			return err
		}
		if _, dup := values[path]; dup {
			return fmt.Errorf("%w: duplicate path %s", ErrInvalidPath, path)
		}
		paths = append(paths, path)
		values[path] = value
	}
	sort.Strings(paths)
	for i := 1; i < len(paths); i++ {
		if strings.HasPrefix(paths[i], paths[i-1]+"/") {
			return fmt.Errorf("%w: %s overlaps %s", ErrInvalidPath, paths[i], paths[i-1])
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record update: %w", err)
	}
	now := r.now().UTC()
	const stripQuery = `UPDATE records SET value = value #- string_to_array(substr($1, length(path) + 2), '/')
WHERE starts_with($1, path || '/') AND jsonb_typeof(value) = 'object'`
	const deleteQuery = `DELETE FROM records WHERE path = $1 OR starts_with(path, $2)`
	const insertQuery = `INSERT INTO records (path, value, updated_at) VALUES ($1, $2, $3)`
	for _, path := range paths {
		if _, err := tx.ExecContext(ctx, stripQuery, path); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear embedded record %s: %w", path, err)
		}
		if _, err := tx.ExecContext(ctx, deleteQuery, path, path+"/"); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear record %s: %w", path, err)
		}
		value := values[path]
		if value == nil {
			continue
		}
		payload, err := json.Marshal(value)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode record %s: %w", path, err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, path, payload, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write record %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record update: %w", err)
	}
	return nil
}

// CleanPath trims surrounding slashes and validates each segment.
func CleanPath(path string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || strings.ContainsAny(segment, ".#$[]") {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return path, nil
}

func assemble(root string, rows []recordRow) (interface{}, error) {
	sort.Slice(rows, func(i, j int) bool {
		di, dj := strings.Count(rows[i].Path, "/"), strings.Count(rows[j].Path, "/")
		if di != dj {
			return di < dj
		}
		return rows[i].Path < rows[j].Path
	})

	var tree interface{}
	for _, row := range rows {
		value, err := decodeValue(row.Value)
		if err != nil {
			return nil, fmt.Errorf("decode record %s: %w", row.Path, err)
		}
		rel := strings.Trim(strings.TrimPrefix(row.Path, root), "/")
		if rel == "" {
			tree = merge(tree, value)
			continue
		}
		node, ok := tree.(map[string]interface{})
		if !ok {
			node = map[string]interface{}{}
			tree = node
		}
		segments := strings.Split(rel, "/")
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node[segment].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[segment] = child
			}
			node = child
		}
		last := segments[len(segments)-1]
		node[last] = merge(node[last], value)
	}
	return tree, nil
}

func decodeValue(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func merge(existing, incoming interface{}) interface{} {
	dst, okDst := existing.(map[string]interface{})
	src, okSrc := incoming.(map[string]interface{})
	if !okDst || !okSrc {
		return incoming
	}
	for key, value := range src {
		dst[key] = merge(dst[key], value)
	}
	return dst
}
