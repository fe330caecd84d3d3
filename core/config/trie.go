package config

import (
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Trie maps dotted hostnames to values, label by label from the TLD down,
// with "*" labels matching any single label. Nodes are concurrent maps so
// lookups stay safe against live reconfiguration.
type Trie[T any] struct {
	children *cmap.ConcurrentMap[string, *Trie[T]]
	value    *T
}

func NewTrie[T any]() *Trie[T] {
	m := cmap.New[*Trie[T]]()
	return &Trie[T]{
		children: &m,
	}
}

// Set stores a value for the given host.
func (t *Trie[T]) Set(host string, value T) {
	labels := strings.Split(host, ".")
	node := t

	for i := len(labels) - 1; i >= 0; i-- {
		label := labels[i]

		next := cmap.New[*Trie[T]]()
		node.children.SetIfAbsent(label, &Trie[T]{children: &next})
		node, _ = node.children.Get(label)
	}

	node.value = &value
}

// Get finds the value for the given host. An exact label wins over a
// wildcard at each position.
func (t *Trie[T]) Get(host string) *T {
	labels := strings.Split(host, ".")
	node := t

	for i := len(labels) - 1; i >= 0; i-- {
		if exact, ok := node.children.Get(labels[i]); ok {
			node = exact
			continue
		}
		if wild, ok := node.children.Get("*"); ok {
			node = wild
			continue
		}
		return nil
	}

	return node.value
}

// Delete removes the value for the given host and prunes empty nodes.
// Returns true if a value was found and removed.
func (t *Trie[T]) Delete(host string) bool {
	labels := strings.Split(host, ".")

	path := make([]*Trie[T], 0, len(labels)+1)
	keys := make([]string, 0, len(labels))

	node := t
	path = append(path, node)

	for i := len(labels) - 1; i >= 0; i-- {
		label := labels[i]
		keys = append(keys, label)

		next, ok := node.children.Get(label)
		if !ok {
			return false
		}
		node = next
		path = append(path, node)
	}

	if node.value == nil {
		return false
	}
	node.value = nil

	for i := len(path) - 1; i > 0; i-- {
		cur, parent := path[i], path[i-1]
		if cur.value != nil || cur.children.Count() > 0 {
			break
		}
		parent.children.Remove(keys[i-1])
	}

	return true
}

// Keys returns every host with a stored value.
func (t *Trie[T]) Keys() []string {
	var result []string
	t.collect(&result, nil)
	return result
}

func (t *Trie[T]) collect(result *[]string, path []string) {
	if t.value != nil {
		host := make([]string, len(path))
		for i := range path {
			host[i] = path[len(path)-1-i]
		}
		*result = append(*result, strings.Join(host, "."))
	}

	t.children.IterCb(func(label string, child *Trie[T]) {
		child.collect(result, append(path, label))
	})
}
