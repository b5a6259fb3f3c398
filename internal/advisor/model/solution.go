package model

// ToolCombination pairs one tool with its role in the overall proposal and
// the action items specific to it.
type ToolCombination struct {
	Tool    string   `json:"tool"`
	Purpose string   `json:"purpose"`
	Todos   []string `json:"todos"`
}

// Solution is the canonical recommendation shape. It is produced once per
// round sequence by the response normalizer and never partially mutated;
// the legacy single-tool payload is folded into this shape at the
// normalization boundary and no caller branches on it afterwards.
//
// Invariant: PrimaryTool is a member of Tools, and ToolCombinations has at
// least one entry whenever Tools is non-empty.
type Solution struct {
	Message          string            `json:"message"`
	Tools            []string          `json:"tools"`
	PrimaryTool      string            `json:"primary_tool"`
	ToolCombinations []ToolCombination `json:"tool_combinations"`
	Todos            []string          `json:"todos"`
}

// Clone returns a deep copy so stored solutions stay immutable.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	out := &Solution{
		Message:     s.Message,
		PrimaryTool: s.PrimaryTool,
		Tools:       append([]string(nil), s.Tools...),
		Todos:       append([]string(nil), s.Todos...),
	}
	for _, tc := range s.ToolCombinations {
		out.ToolCombinations = append(out.ToolCombinations, ToolCombination{
			Tool:    tc.Tool,
			Purpose: tc.Purpose,
			Todos:   append([]string(nil), tc.Todos...),
		})
	}
	return out
}
