package maps

// orderedMap is a map that remembers insertion order. Not safe for
// concurrent use; owners guard it with their own lock.
type orderedMap[V any] struct {
	keys   []string
	values map[string]V
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{values: make(map[string]V)}
}

func (m *orderedMap[V]) get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// add inserts key. Returns false if key is already present.
func (m *orderedMap[V]) add(key string, v V) bool {
	if _, ok := m.values[key]; ok {
		return false
	}
	m.keys = append(m.keys, key)
	m.values[key] = v
	return true
}

func (m *orderedMap[V]) remove(key string) (V, bool) {
	v, ok := m.values[key]
	if !ok {
		return v, false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
	return v, true
}

func (m *orderedMap[V]) len() int {
	return len(m.keys)
}

func (m *orderedMap[V]) ids() []string {
	return append([]string(nil), m.keys...)
}

func (m *orderedMap[V]) list() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}
