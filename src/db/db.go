package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/quillpress/quill/src/oops"
)

/*
Returned by QueryOne and QueryOneScalar when the result set is empty. Other
helpers that look up a single thing should return it too.
*/
var NotFound = errors.New("not found")

// pgtype.Map caches lookups internally and is not safe for concurrent use.
var (
	typeMap   = pgtype.NewMap()
	typeMapMu sync.Mutex
)

/*
Runs a query and collects every row. T must be given explicitly; it decides
how each row is mapped. Structs use `db` tags together with the $columns
placeholder, anything pgx can scan directly is treated as a single column.
*/
func Query[T any](ctx context.Context, conn ConnOrTx, query string, args ...any) ([]*T, error) {
	it, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	return it.ToSlice()
}

// Like Query, but only the first row. Empty results give NotFound.
func QueryOne[T any](ctx context.Context, conn ConnOrTx, query string, args ...any) (*T, error) {
	it, err := QueryIterator[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	result, ok, err := it.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFound
	}
	return result, nil
}

// Like Query, but values instead of pointers.
func QueryScalar[T any](ctx context.Context, conn ConnOrTx, query string, args ...any) ([]T, error) {
	rows, err := Query[T](ctx, conn, query, args...)
	if err != nil {
		return nil, err
	}
	result := make([]T, 0, len(rows))
	for _, row := range rows {
		result = append(result, *row)
	}
	return result, nil
}

func QueryOneScalar[T any](ctx context.Context, conn ConnOrTx, query string, args ...any) (T, error) {
	result, err := QueryOne[T](ctx, conn, query, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return *result, nil
}

// The iterator must be closed. It is also closed when ctx is done, so an
// abandoned request does not keep a connection checked out.
func QueryIterator[T any](ctx context.Context, conn ConnOrTx, query string, args ...any) (*Iterator[T], error) {
	var destExample T
	compiled := compileQuery(query, reflect.TypeOf(destExample))

	rows, err := conn.Query(ctx, compiled.query, args...)
	if err != nil {
		return nil, err
	}

	it := &Iterator[T]{
		rows:       rows,
		fieldPaths: compiled.fieldPaths,
		scalar:     compiled.fieldPaths == nil,
		closed:     make(chan struct{}, 1),
	}

	go func() {
		done := ctx.Done()
		if done == nil {
			return
		}
		select {
		case <-done:
			it.Close()
		case <-it.closed:
		}
	}()

	return it, nil
}

type compiledQuery struct {
	query      string
	fieldPaths []fieldPath
}

// A chain of struct field indices from the destination type down to one column.
type fieldPath []int

var reColumnsPlaceholder = regexp.MustCompile(`\$columns({(.*?)})?`)

func compileQuery(query string, destType reflect.Type) compiledQuery {
	match := reColumnsPlaceholder.FindStringSubmatch(query)
	if match == nil {
		return compiledQuery{query: query}
	}

	if destType.Kind() != reflect.Struct {
		panic(fmt.Errorf("$columns can only be used when querying into a struct, not %s", destType))
	}

	names, paths := columnsFor(destType, nil, match[2])
	return compiledQuery{
		query:      reColumnsPlaceholder.ReplaceAllLiteralString(query, strings.Join(names, ", ")),
		fieldPaths: paths,
	}
}

/*
Walks `db` tags. Fields pgx can scan become columns; tagged struct fields are
descended into, and the tag becomes the table qualifier of their columns, so

	type ArticleAndAuthor struct {
		Article Article `db:"article"`
		Author  User    `db:"author"`
	}

expands to article.id, article.title, ..., author.id, author.login, ...
*/
func columnsFor(t reflect.Type, pathSoFar []int, table string) ([]string, []fieldPath) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Errorf("can only get columns from a struct, got %s", t))
	}

	var names []string
	var paths []fieldPath
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == "" {
			continue
		}

		path := make(fieldPath, len(pathSoFar), len(pathSoFar)+1)
		copy(path, pathSoFar)
		path = append(path, i)

		fieldType := field.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		if typeIsQueryable(fieldType) {
			name := tag
			if table != "" {
				name = table + "." + tag
			}
			names = append(names, name)
			paths = append(paths, path)
		} else if fieldType.Kind() == reflect.Struct {
			subTable := tag
			if table != "" {
				subTable = table + "_" + tag
			}
			subNames, subPaths := columnsFor(fieldType, path, subTable)
			names = append(names, subNames...)
			paths = append(paths, subPaths...)
		} else {
			panic(fmt.Errorf("field '%s' in type %s has unsupported type %s", field.Name, t, field.Type))
		}
	}
	return names, paths
}

// Anything pgx knows how to encode. Named primitives such as
// `type ImageBackend string` are fine as well.
func typeIsQueryable(t reflect.Type) bool {
	typeMapMu.Lock()
	_, known := typeMap.TypeForValue(reflect.New(t).Elem().Interface())
	typeMapMu.Unlock()
	if known {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Struct
	}
	return false
}

type Iterator[T any] struct {
	rows       pgx.Rows
	fieldPaths []fieldPath
	scalar     bool
	closed     chan struct{}
}

// Returns the next row, or false once the rows are exhausted.
func (it *Iterator[T]) Next() (*T, bool, error) {
	if !it.rows.Next() {
		err := it.rows.Err()
		it.Close()
		if err != nil {
			return nil, false, oops.New(err, "error while iterating through db results")
		}
		return nil, false, nil
	}

	result := new(T)
	if it.scalar {
		if err := it.rows.Scan(result); err != nil {
			return nil, false, oops.New(err, "failed to scan %T", *result)
		}
		return result, true, nil
	}

	dests := make([]any, len(it.fieldPaths))
	val := reflect.ValueOf(result)
	for i, path := range it.fieldPaths {
		field := followPath(val, path)
		dests[i] = field.Addr().Interface()
	}
	if err := it.rows.Scan(dests...); err != nil {
		return nil, false, oops.New(err, "failed to scan row into %T", *result)
	}
	return result, true, nil
}

func (it *Iterator[T]) Close() {
	it.rows.Close()
	select {
	case it.closed <- struct{}{}:
	default:
	}
}

// Collects the remaining rows and closes the iterator.
func (it *Iterator[T]) ToSlice() ([]*T, error) {
	defer it.Close()
	var result []*T
	for {
		row, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, row)
	}
}

// Nested struct pointers along the way are allocated. The final field is
// returned as is; pgx sets pointer fields to nil for NULL.
func followPath(structPtr reflect.Value, path fieldPath) reflect.Value {
	if len(path) == 0 {
		panic(oops.New(nil, "can't follow an empty path"))
	}

	val := structPtr
	for _, i := range path {
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				val.Set(reflect.New(val.Type().Elem()))
			}
			val = val.Elem()
		}
		val = val.Field(i)
	}
	return val
}
