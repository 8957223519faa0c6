// Package store holds the client-side caches for jobs and notifications and
// keeps them reconciled with the backend by poll or push.
package store

// Variant selects the toast presentation.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Toast is one transient user-facing message emitted by the stores.
type Toast struct {
	Title       string
	Description string
	Variant     Variant
}

// Toaster receives toasts. The presentational layer supplies the
// implementation; stores only decide when a toast is due.
type Toaster interface {
	Toast(t Toast)
}

// ToastFunc adapts a function to the Toaster interface.
type ToastFunc func(Toast)

func (f ToastFunc) Toast(t Toast) { f(t) }

// NopToaster discards all toasts.
var NopToaster Toaster = ToastFunc(func(Toast) {})
