package refcode

import (
	"context"
	"strings"
)

// Field models the reference input on the new-transaction form. The
// allocator fills it whenever the transaction type or the selected item
// changes; a manual edit pins the current value until one of them changes
// again. Field is driven from a single goroutine, like the form it backs.
type Field struct {
	alloc   *Allocator
	txType  string
	item    string
	value   string
	touched bool
}

// NewField returns an empty reference field backed by alloc.
func NewField(alloc *Allocator) *Field {
	return &Field{alloc: alloc}
}

// Value returns the current reference text.
func (f *Field) Value() string {
	return f.value
}

// Touched reports whether the operator has manually edited the reference.
func (f *Field) Touched() bool {
	return f.touched
}

// Edit records a manual override. Automatic regeneration stays suppressed
// until the type or item changes again.
func (f *Field) Edit(value string) {
	f.value = value
	f.touched = true
}

// SetType updates the transaction type. A changed type clears any manual
// override and regenerates the reference; setting the same type again is a
// no-op and keeps an override in place.
func (f *Field) SetType(ctx context.Context, txType string) {
	t := strings.ToUpper(strings.TrimSpace(txType))
	if t == f.txType {
		return
	}
	f.txType = t
	f.touched = false
	f.regenerate(ctx)
}

// SetItem updates the selected item code with the same change rules as
// SetType.
func (f *Field) SetItem(ctx context.Context, itemCode string) {
	item := strings.TrimSpace(itemCode)
	if item == f.item {
		return
	}
	f.item = item
	f.touched = false
	f.regenerate(ctx)
}

// regenerate recomputes the value once both selections are made. An
// untouched field with a missing type or item keeps its current text, so
// a half-filled form never shows a half-built reference.
func (f *Field) regenerate(ctx context.Context) {
	if f.touched || f.txType == "" || f.item == "" {
		return
	}
	f.value = f.alloc.Next(ctx, f.txType, f.item)
}
