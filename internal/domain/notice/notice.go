// Package notice describes transient user-visible notices and dialogs.
//
// Notices are plain values; the transport decides how to show them (toast,
// modal, alert). Nothing here blocks or schedules timers.
package notice

import (
	"fmt"
	"time"
)

// Kind classifies a notice for presentation.
type Kind string

const (
	KindSuccess  Kind = "success"
	KindQuestion Kind = "question"
	KindError    Kind = "error"
	KindInfo     Kind = "info"
)

// DefaultDismiss is how long a self-dismissing notice stays visible.
const DefaultDismiss = 2 * time.Second

// Notice is a transient message or dialog shown to the user.
type Notice struct {
	Kind  Kind
	Title string
	Text  string
	// AutoDismiss hides the notice after the given duration. Zero means the
	// notice stays until the user acts on it.
	AutoDismiss time.Duration
	// Confirm and Cancel are button labels. Empty Cancel means the dialog has
	// a single action.
	Confirm string
	Cancel  string
}

// IsZero reports whether n carries nothing to show.
func (n Notice) IsZero() bool {
	return n.Title == "" && n.Text == ""
}

// AddedToCart is the confirmation emitted after a product lands in the cart.
func AddedToCart(product string) Notice {
	return Notice{
		Kind:        KindSuccess,
		Title:       "Added to Cart!",
		Text:        fmt.Sprintf("%s has been added to your cart.", product),
		AutoDismiss: DefaultDismiss,
	}
}

// Failure builds an error notice.
func Failure(title, text string) Notice {
	return Notice{
		Kind:    KindError,
		Title:   title,
		Text:    text,
		Confirm: "OK",
	}
}
