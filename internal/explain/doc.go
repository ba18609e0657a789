// Package explain evaluates a pre-trained logistic regression classifier
// against a static feature table and derives the explainability views:
// ROC and precision-recall curves, confusion matrices at arbitrary
// thresholds, and per-feature attribution rankings. Nothing here trains;
// the model arrives as a serialized artifact.
package explain
