package task

import (
	"strings"

	"autodev/internal/slug"
)

const (
	// branchPrefix prefixes every branch autodev creates.
	branchPrefix = "ai-task"
	// branchSlugWidth bounds the title slug segment.
	branchSlugWidth = 24
	// branchIDWidth bounds the task identifier segment.
	branchIDWidth = 8
	// branchMaxLen is a conservative ceiling for git ref components.
	branchMaxLen = 60
)

// BranchName derives the deterministic branch name for a task.
//
// The format is part of the external contract: a fixed prefix, the
// truncated lowercase slug of the title, and a fixed-length prefix of
// the task identifier, joined by hyphens. Two distinct tasks must not
// plausibly collide because the identifier segment disambiguates tasks
// whose title slugs agree.
func BranchName(t Task) string {
	titleSlug := slug.Truncate(slug.Slugify(t.Title), branchSlugWidth)
	if titleSlug == "" {
		titleSlug = "task"
	}
	idSlug := slug.Slugify(t.ID)
	if len(idSlug) > branchIDWidth {
		idSlug = idSlug[:branchIDWidth]
	}
	parts := []string{branchPrefix, titleSlug}
	if idSlug != "" {
		parts = append(parts, idSlug)
	}
	branch := strings.Join(parts, "-")
	if len(branch) > branchMaxLen {
		branch = strings.TrimRight(branch[:branchMaxLen], "-")
	}
	return branch
}
