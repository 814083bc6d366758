package props

import (
	"io"
	"reflect"
	"time"
)

// delegate is an accessor signature answered by the store itself rather than
// by a property lookup.
type delegate struct {
	name   string
	params []reflect.Type
	invoke func(store *Store, args []any) (any, error)
}

var delegates = []delegate{
	{
		name:   "list",
		params: []reflect.Type{reflect.TypeFor[io.Writer]()},
		invoke: func(store *Store, args []any) (any, error) {
			return nil, store.List(args[0].(io.Writer))
		},
	},
	{
		name:   "fill",
		params: []reflect.Type{reflect.TypeFor[map[string]string]()},
		invoke: func(store *Store, args []any) (any, error) {
			target := args[0].(map[string]string)
			for key, value := range store.Flatten() {
				target[key] = value
			}
			return nil, nil
		},
	},
}

// matchDelegate finds a delegate whose name and parameter types match the
// invocation.
func matchDelegate(name string, args []any) (delegate, bool) {
	for _, d := range delegates {
		if d.name != name || len(d.params) != len(args) {
			continue
		}
		matched := true
		for i, param := range d.params {
			if args[i] == nil || !reflect.TypeOf(args[i]).AssignableTo(param) {
				matched = false
				break
			}
		}
		if matched {
			return d, true
		}
	}
	return delegate{}, false
}

// Delegate answers introspection signatures (list(io.Writer),
// fill(map[string]string)) against the store returned by effective, which is
// only built once a signature matches. ok is false when the invocation does
// not match a delegated signature and must be resolved as a property.
func (r *Resolver) Delegate(schema *Schema, effective func() *Store, name string, args []any) (result any, ok bool, err error) {
	d, ok := matchDelegate(name, args)
	if !ok {
		return nil, false, nil
	}
	if r.err != nil {
		return nil, true, r.err
	}
	start := time.Now()
	result, err = d.invoke(effective(), args)
	r.logger.LogResolution(ResolutionLogEvent{
		Schema:    schema.Name(),
		Accessor:  name,
		Delegated: true,
		Duration:  time.Since(start),
		Err:       err,
	})
	return result, true, err
}
