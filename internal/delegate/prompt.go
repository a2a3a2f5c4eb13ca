package delegate

import (
	"fmt"
	"strings"

	"autodev/internal/task"
)

// BuildPrompt renders the instruction handed to the delegate as its final
// argument. The delegate works inside the task workspace, so paths in the
// prompt are workspace-relative.
func BuildPrompt(t task.Task, contextFiles []string) string {
	var b strings.Builder
	b.WriteString("You are implementing one backlog task in this repository.\n\n")
	fmt.Fprintf(&b, "Task: %s\n", t.Title)
	fmt.Fprintf(&b, "Task ID: %s\n", t.ID)
	if t.Description != "" {
		fmt.Fprintf(&b, "\nDetails:\n%s\n", t.Description)
	}
	if len(contextFiles) > 0 {
		b.WriteString("\nRead these files for context before changing anything:\n")
		for _, file := range contextFiles {
			fmt.Fprintf(&b, "- %s\n", file)
		}
	}
	b.WriteString("\nConstraints:\n")
	b.WriteString("- Make the smallest change that completes the task.\n")
	b.WriteString("- Do not commit, push, or touch git configuration.\n")
	b.WriteString("- Leave the working tree containing only your changes.\n")
	return b.String()
}
