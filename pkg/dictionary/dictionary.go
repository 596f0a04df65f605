// Package dictionary implements the bounded dictionary encoding behind
// enum columns. Each distinct category text maps to a stable dense code
// assigned in first-seen order; codes are never reassigned within a
// dictionary's lifetime.
package dictionary

import (
	"github.com/ajitpratap0/quasar/pkg/errors"
	stringpool "github.com/ajitpratap0/quasar/pkg/strings"
)

// Dictionary is a bidirectional mapping between category text and dense
// uint32 codes. It is owned by a single column builder and is not safe
// for concurrent mutation; merged columns get a fresh dictionary from
// Union rather than sharing one.
type Dictionary struct {
	codes      map[string]uint32
	categories []string
	maxSize    int
}

// New creates an empty dictionary holding at most maxSize categories.
func New(maxSize int) *Dictionary {
	return &Dictionary{
		codes:      make(map[string]uint32, maxSize),
		categories: make([]string, 0, minInt(maxSize, 64)),
		maxSize:    maxSize,
	}
}

// FromCategories builds a dictionary whose codes follow the slice order.
func FromCategories(categories []string, maxSize int) (*Dictionary, error) {
	d := New(maxSize)
	for _, category := range categories {
		if _, err := d.Intern(category); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Intern returns the code for a category, assigning the next dense code
// on first sight. Interning an already-known category never fails, even
// in a full dictionary; only a new category can overflow.
func (d *Dictionary) Intern(category string) (uint32, error) {
	if code, ok := d.codes[category]; ok {
		return code, nil
	}
	if len(d.categories) >= d.maxSize {
		return 0, errors.New(errors.ErrorTypeDictionaryOverflow,
			stringpool.Sprintf("dictionary full: cap %d exceeded by category %q",
				d.maxSize, category))
	}
	code := uint32(len(d.categories))
	// Clone detaches the category from any larger backing buffer the
	// caller parsed it out of; map key and slice share the copy.
	owned := stringpool.Clone(category)
	d.codes[owned] = code
	d.categories = append(d.categories, owned)
	return code, nil
}

// Code looks up an existing category without assigning.
func (d *Dictionary) Code(category string) (uint32, bool) {
	code, ok := d.codes[category]
	return code, ok
}

// Value returns the category text for a code.
func (d *Dictionary) Value(code uint32) (string, bool) {
	if int(code) >= len(d.categories) {
		return "", false
	}
	return d.categories[code], true
}

// Len returns the number of categories.
func (d *Dictionary) Len() int { return len(d.categories) }

// Cap returns the maximum number of categories.
func (d *Dictionary) Cap() int { return d.maxSize }

// Categories returns the categories in code order. The slice is a copy.
func (d *Dictionary) Categories() []string {
	out := make([]string, len(d.categories))
	copy(out, d.categories)
	return out
}

// Clone returns an independent copy with identical code assignments.
func (d *Dictionary) Clone() *Dictionary {
	dup := New(d.maxSize)
	dup.categories = append(dup.categories, d.categories...)
	for category, code := range d.codes {
		dup.codes[category] = code
	}
	return dup
}

// Union merges another dictionary into a copy of this one. The receiver's
// codes are preserved exactly; categories unique to other get fresh codes
// appended in other's code order. The returned remap slice translates
// other's codes into the merged dictionary: merged code = remap[other
// code]. Overflow of the receiver's cap fails with DictionaryOverflow and
// leaves both inputs untouched.
func (d *Dictionary) Union(other *Dictionary) (*Dictionary, []uint32, error) {
	merged := d.Clone()
	remap := make([]uint32, len(other.categories))
	for code, category := range other.categories {
		newCode, err := merged.Intern(category)
		if err != nil {
			return nil, nil, err
		}
		remap[code] = newCode
	}
	return merged, remap, nil
}

// Snapshot is the serializable form of a dictionary.
type Snapshot struct {
	Categories []string `json:"categories"`
	MaxSize    int      `json:"max_size"`
}

// Snapshot captures the dictionary for serialization.
func (d *Dictionary) Snapshot() Snapshot {
	return Snapshot{Categories: d.Categories(), MaxSize: d.maxSize}
}

// FromSnapshot restores a dictionary from its serialized form.
func FromSnapshot(s Snapshot) (*Dictionary, error) {
	return FromCategories(s.Categories, s.MaxSize)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
