// Package media defines the quality ladder, resolved-item model, and variant
// selection rules shared by the resolver and the pipeline stages.
package media
