package pipeline

import (
	"autodev/internal/review"
	"autodev/internal/task"
	"autodev/internal/vcs"
)

// Eligible returns the tasks not already claimed by an open review record
// or an active workspace on their derived branch. Pure and deterministic
// given its three inputs.
//
// Claim detection is a check-then-act race across concurrent invocations;
// callers accept that by re-observing collaborator state at selection time.
func Eligible(tasks []task.Task, records []review.Record, worktrees []vcs.Worktree) []task.Task {
	claimed := make(map[string]bool, len(records)+len(worktrees))
	for _, record := range records {
		if record.Branch != "" {
			claimed[record.Branch] = true
		}
	}
	for _, wt := range worktrees {
		if wt.Branch != "" {
			claimed[wt.Branch] = true
		}
	}

	var eligible []task.Task
	for _, t := range tasks {
		if t.Status != task.StatusPending {
			continue
		}
		if claimed[task.BranchName(t)] {
			continue
		}
		eligible = append(eligible, t)
	}
	return eligible
}

// Select chooses one task from the eligible subset: first in catalog
// order. This is a policy seam; alternative selectors implement the same
// contract without the pipeline changing.
func Select(eligible []task.Task) (task.Task, bool) {
	if len(eligible) == 0 {
		return task.Task{}, false
	}
	return eligible[0], true
}
