package container

import (
	"io"
	"iter"

	"github.com/go-json-experiment/json"
	"github.com/pkg/errors"
)

var errStopped = errors.New("stopped")

// Traverse drives it to the end calling fn for every element. It stops at
// the first error returned by fn or by the iterator. It never looks at the
// concrete backend behind it.
func Traverse[T any](it Iterator[T], fn func(item T) error) error {
	for it.HasNext() {
		item, err := it.Current()
		if err != nil {
			return err
		}
		err = fn(item)
		if err != nil {
			return err
		}
		err = it.Advance()
		if err != nil {
			return err
		}
	}
	return it.Err()
}

// Collect returns the remaining elements of it.
func Collect[T any](it Iterator[T]) ([]T, error) {
	items := []T{}
	err := Traverse(it, func(item T) error {
		items = append(items, item)
		return nil
	})
	return items, err
}

// Print writes every remaining element of it to w, one JSON value per line.
func Print[T any](w io.Writer, it Iterator[T]) error {
	return Traverse(it, func(item T) error {
		line, err := json.Marshal(item)
		if err != nil {
			return errors.Wrap(err, "print: encode item")
		}
		line = append(line, '\n')
		_, err = w.Write(line)
		return errors.Wrap(err, "print: write")
	})
}

// All adapts it to a range-over-func sequence. A failing iterator yields
// one final pair carrying the zero value and the error.
func All[T any](it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		err := Traverse(it, func(item T) error {
			if !yield(item, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && err != errStopped {
			var zero T
			yield(zero, err)
		}
	}
}
