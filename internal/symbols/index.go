package symbols

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Index maps canonical names to values. Names are bucketed by their xxhash
// digest and compared in full within a bucket, so a digest collision never
// merges two names. The zero value is empty and ready to use. An Index is
// not safe for concurrent use.
type Index[V any] struct {
	buckets map[uint64][]indexEntry[V]
	n       int
	hash    func(string) uint64
}

type indexEntry[V any] struct {
	name  string
	value V
}

// HashName returns the digest a canonical name is bucketed under.
func HashName(name string) uint64 {
	return xxhash.Sum64String(name)
}

func (ix *Index[V]) sum(name string) uint64 {
	if ix.hash != nil {
		return ix.hash(name)
	}
	return HashName(name)
}

// Get returns the value stored under name.
func (ix *Index[V]) Get(name string) (V, bool) {
	return ix.find(ix.sum(name), func(n string, _ V) bool { return n == name })
}

// find returns the first value of the bucket accepted by match.
func (ix *Index[V]) find(sum uint64, match func(name string, v V) bool) (V, bool) {
	for _, e := range ix.buckets[sum] {
		if match(e.name, e.value) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Put stores v under name, replacing any previous value, and reports
// whether name was new.
func (ix *Index[V]) Put(name string, v V) bool {
	return ix.put(name, v, true)
}

// Add stores v under name unless name is present. It reports whether v was
// stored.
func (ix *Index[V]) Add(name string, v V) bool {
	return ix.put(name, v, false)
}

func (ix *Index[V]) put(name string, v V, replace bool) bool {
	if ix.buckets == nil {
		ix.buckets = make(map[uint64][]indexEntry[V])
	}

	sum := ix.sum(name)
	bucket := ix.buckets[sum]
	for i := range bucket {
		if bucket[i].name == name {
			if replace {
				bucket[i].value = v
			}
			return false
		}
	}

	ix.buckets[sum] = append(bucket, indexEntry[V]{name: name, value: v})
	ix.n++
	return true
}

// Delete removes name and reports whether it was present.
func (ix *Index[V]) Delete(name string) bool {
	return ix.deleteFunc(ix.sum(name), func(n string, _ V) bool { return n == name })
}

func (ix *Index[V]) deleteFunc(sum uint64, match func(name string, v V) bool) bool {
	bucket := ix.buckets[sum]
	for i, e := range bucket {
		if !match(e.name, e.value) {
			continue
		}

		if len(bucket) == 1 {
			delete(ix.buckets, sum)
		} else {
			ix.buckets[sum] = slices.Delete(slices.Clone(bucket), i, i+1)
		}
		ix.n--
		return true
	}
	return false
}

// Len returns the number of names.
func (ix *Index[V]) Len() int {
	return ix.n
}

// Values returns the values ordered by name.
func (ix *Index[V]) Values() []V {
	entries := make([]indexEntry[V], 0, ix.n)
	for _, bucket := range ix.buckets {
		entries = append(entries, bucket...)
	}
	slices.SortFunc(entries, func(a, b indexEntry[V]) int {
		return strings.Compare(a.name, b.name)
	})

	out := make([]V, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

// Clone returns an independent copy. Values are copied shallowly.
func (ix *Index[V]) Clone() Index[V] {
	c := Index[V]{n: ix.n, hash: ix.hash}
	if ix.buckets != nil {
		c.buckets = make(map[uint64][]indexEntry[V], len(ix.buckets))
		for sum, bucket := range ix.buckets {
			c.buckets[sum] = slices.Clone(bucket)
		}
	}
	return c
}
