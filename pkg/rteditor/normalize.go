package rteditor

import (
	"rteditor/internal/normalizer"
	"rteditor/internal/policy"
)

// Report summarizes what sanitization removed from a document
type Report = normalizer.Report

// Normalize returns the canonical, sanitized form of content without an editor instance.
// classMap overrides the default class of individual tags and may be nil.
func Normalize(content string, classMap map[string]string) string {
	return normalizer.Normalize(content, policy.NewClassMap(classMap))
}

// NormalizeWithReport is Normalize that also reports what was removed
func NormalizeWithReport(content string, classMap map[string]string) (string, Report) {
	return normalizer.New(policy.NewClassMap(classMap)).NormalizeWithReport(content)
}
