// Package render turns the conversation state into a display
// description. It is a pure function of state: nothing here feeds back
// into transition logic.
package render

import (
	"fmt"
	"io"

	"github.com/dx-advisor/server/internal/advisor/model"
)

// Line is one transcript entry.
type Line struct {
	Role    string
	Content string
}

// View describes what must be displayed for the current stage.
type View struct {
	Stage      model.Stage
	Header     string
	RoundNote  string
	Questions  []string
	Solution   *model.Solution
	Transcript []Line
	Warnings   []string
}

// Compose builds the view for a state. Warnings collected by the caller
// (validation messages, surfaced errors) are carried through verbatim.
func Compose(state model.ConversationState, maxRounds int, warnings ...string) View {
	v := View{
		Stage:    state.Stage,
		Warnings: warnings,
	}

	switch state.Stage {
	case model.StageInitialInput:
		v.Header = "Tell me what you want to achieve"
	case model.StageProcessing:
		v.Header = "Analyzing your request..."
	case model.StageAwaitingAnswers:
		v.Header = "A few questions before a recommendation"
		v.RoundNote = fmt.Sprintf("question round %d of at most %d", state.RoundCounter, maxRounds)
		v.Questions = append([]string(nil), state.PendingQuestions...)
	case model.StageShowingSolution:
		if state.Forced {
			v.Header = "Best-effort proposal (question budget reached)"
		} else {
			v.Header = "Your DX theme is defined"
		}
		v.Solution = state.Solution.Clone()
	case model.StageError:
		v.Header = "Something went wrong"
	}

	for _, msg := range state.History {
		if msg == nil {
			continue
		}
		v.Transcript = append(v.Transcript, Line{Role: string(msg.Role), Content: msg.Content})
	}
	return v
}

// Print writes a console rendering of the view.
func Print(w io.Writer, v View) {
	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "! %s\n", warning)
	}
	fmt.Fprintf(w, "== %s ==\n", v.Header)
	if v.RoundNote != "" {
		fmt.Fprintf(w, "(%s)\n", v.RoundNote)
	}
	for i, q := range v.Questions {
		fmt.Fprintf(w, "%d. %s\n", i+1, q)
	}
	if v.Solution != nil {
		printSolution(w, v.Solution)
	}
}

func printSolution(w io.Writer, s *model.Solution) {
	fmt.Fprintf(w, "%s\n\n", s.Message)
	fmt.Fprintf(w, "Primary DX tool: %s\n", s.PrimaryTool)

	if len(s.ToolCombinations) > 0 {
		fmt.Fprintln(w, "\nTool combination:")
		for i, combo := range s.ToolCombinations {
			fmt.Fprintf(w, "%d. %s - %s\n", i+1, combo.Tool, combo.Purpose)
			for _, todo := range combo.Todos {
				fmt.Fprintf(w, "   [ ] %s\n", todo)
			}
		}
	}

	fmt.Fprintln(w, "\nOverall to-do list:")
	if len(s.Todos) == 0 {
		fmt.Fprintln(w, "(no to-do list was provided)")
	}
	for _, todo := range s.Todos {
		fmt.Fprintf(w, "[ ] %s\n", todo)
	}

	if len(s.Tools) > 1 {
		fmt.Fprintln(w, "\nAll tools used:")
		for _, tool := range s.Tools {
			if tool == s.PrimaryTool {
				fmt.Fprintf(w, "- %s (primary)\n", tool)
			} else {
				fmt.Fprintf(w, "- %s\n", tool)
			}
		}
	}
}
