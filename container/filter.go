package container

import (
	"github.com/SierraSoftworks/connor"
	"github.com/pkg/errors"

	"github.com/fulldump/collections/utils"
)

func init() {
	connor.Register(&operatorAlias{name: "gte", Operator: &connor.GreaterEqualOperator{}})
	connor.Register(&operatorAlias{name: "lte", Operator: &connor.LessEqualOperator{}})
}

// operatorAlias publishes a connor operator under its Mongo name.
type operatorAlias struct {
	connor.Operator
	name string
}

func (o *operatorAlias) Name() string {
	return o.name
}

// Where returns an iterator over the elements of it matching filter, a
// Mongo-style query such as {"age": {"$gte": 18}}. Supported operators are
// $eq, $ne, $gt, $gte (or $ge), $lt, $lte (or $le), $in, $nin, $contains,
// $and and $or. Elements are matched in
// their JSON form; elements that do not encode as a JSON object are matched
// under the key "value".
//
// The source iterator is consumed by the filter and must not be used
// directly afterwards.
func Where[T any](it Iterator[T], filter map[string]any) Iterator[T] {
	w := &whereIterator[T]{
		source: it,
		filter: filter,
	}
	w.seek()
	return w
}

type whereIterator[T any] struct {
	source  Iterator[T]
	filter  map[string]any
	current T
	ok      bool
	err     error
}

// seek positions the source on the next matching element, or past the end.
func (w *whereIterator[T]) seek() {
	w.ok = false
	for w.source.HasNext() {
		item, err := w.source.Current()
		if err != nil {
			w.err = err
			return
		}
		match, err := Match(w.filter, item)
		if err != nil {
			w.err = err
			return
		}
		if match {
			w.current = item
			w.ok = true
			return
		}
		if err := w.source.Advance(); err != nil {
			w.err = err
			return
		}
	}
	if err := w.source.Err(); err != nil {
		w.err = err
	}
}

func (w *whereIterator[T]) HasNext() bool {
	return w.err == nil && w.ok && w.source.Err() == nil
}

func (w *whereIterator[T]) Current() (T, error) {
	var zero T
	if err := w.Err(); err != nil {
		return zero, err
	}
	if !w.ok {
		return zero, errors.Wrap(ErrIteratorExhausted, "where iterator")
	}
	return w.current, nil
}

func (w *whereIterator[T]) Advance() error {
	if err := w.Err(); err != nil {
		return err
	}
	if !w.ok {
		return errors.Wrap(ErrIteratorExhausted, "where iterator")
	}
	if err := w.source.Advance(); err != nil {
		w.err = err
		return err
	}
	w.seek()
	return w.err
}

func (w *whereIterator[T]) Err() error {
	if w.err != nil {
		return w.err
	}
	return w.source.Err()
}

// Match reports whether item satisfies filter. An empty filter matches
// everything.
func Match[T any](filter map[string]any, item T) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}

	var document any
	err := utils.Remarshal(item, &document)
	if err != nil {
		return false, errors.Wrap(err, "match: remarshal item")
	}
	data, isObject := document.(map[string]any)
	if !isObject {
		data = map[string]any{"value": document}
	}

	match, err := connor.Match(filter, data)
	if err != nil {
		return false, errors.Wrap(err, "match")
	}
	return match, nil
}
