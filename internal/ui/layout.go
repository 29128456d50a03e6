package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the queue drops the
	// priority and pages columns into one.
	LayoutCompactWidth = 80

	// LayoutSideBySideWidth is the minimum width to show the form beside the
	// queue instead of below it.
	LayoutSideBySideWidth = 120
)

// Timing constants.
const (
	// FlashDuration is how long a submission or error message stays visible.
	FlashDuration = 3 * time.Second

	// RequestTimeout bounds login, logout and upload calls made from the UI.
	RequestTimeout = 30 * time.Second
)
