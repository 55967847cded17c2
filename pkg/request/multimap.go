package request

// multimap maps keys to ordered values. Keys iterate in order of first insertion.
type multimap[T any] struct {
	keys   []string
	values map[string][]T
}

func newMultimap[T any]() *multimap[T] {
	return &multimap[T]{values: make(map[string][]T)}
}

// add appends v under key and returns a copy of the values for key.
func (m *multimap[T]) add(key string, v T) []T {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(m.values[key], v)
	return m.get(key)
}

func (m *multimap[T]) get(key string) []T {
	vals, ok := m.values[key]
	if !ok {
		return nil
	}
	return append([]T(nil), vals...)
}

// remove deletes key and returns what it held.
func (m *multimap[T]) remove(key string) []T {
	vals, ok := m.values[key]
	if !ok {
		return nil
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
	return vals
}

// clear empties the map and returns a snapshot of the prior contents.
func (m *multimap[T]) clear() map[string][]T {
	out := m.snapshot()
	m.keys = nil
	m.values = make(map[string][]T)
	return out
}

func (m *multimap[T]) snapshot() map[string][]T {
	out := make(map[string][]T, len(m.values))
	for k, v := range m.values {
		out[k] = append([]T(nil), v...)
	}
	return out
}

// each visits every key/value pair in key order, stopping on the first error.
func (m *multimap[T]) each(fn func(key string, v T) error) error {
	for _, k := range m.keys {
		for _, v := range m.values[k] {
			if err := fn(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// size is the total number of values across all keys.
func (m *multimap[T]) size() int {
	n := 0
	for _, v := range m.values {
		n += len(v)
	}
	return n
}
