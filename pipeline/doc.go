// Package pipeline runs a complete excess mortality analysis.
//
// Run executes the stages in order, each consuming the previous stage's
// output:
//
//	observed deaths → trend anchors → seasonal fit → excess mortality
//
// and then derives the cumulative, yearly and comparison outputs that the
// report package renders. All stages share the validated config.Run, so the
// fitting window is defined exactly once.
package pipeline
