package config

// DefaultNewPrompt is the initial prompt for qp new.
const DefaultNewPrompt = `Create a quarterly engineering plan titled "{{ .Title }}".

Write the result to {{ .Path }} as a single markdown document. Keep the YAML
frontmatter already in that file unchanged and write the body with these
sections: Overview, Constraints, Implementation Notes, Review Notes, Tickets.
Each ticket needs "TICKET: <title>", "Summary:" and "Definition of Done:".`

// DefaultEditPrompt is the initial prompt for qp edit.
const DefaultEditPrompt = `Edit the plan "{{ .Title }}" stored at {{ .Path }}.

Keep the YAML frontmatter and the sections Overview, Constraints,
Implementation Notes, Review Notes and Tickets. Save your changes to the same file.`

const holesPrompt = `Review this plan and identify gaps, risks, and issues. Output the complete plan with an updated Review Notes section (## Review Notes) containing these four subsections:

### Identified Weaknesses
List at least 5 specific weaknesses. Focus on missing security considerations, unclear requirements, underspecified behavior, missing error handling, and architectural gaps. Be concrete and actionable.

### Edge Cases
List at least 5 edge cases the plan does not address: boundary conditions, error states, concurrent access, invalid inputs, and failure scenarios.

### Assumptions to Validate
List at least 4 assumptions that should be verified before implementation because the approach changes if they are false.

### Potential Failures
List at least 4 ways the implementation could fail in production: infrastructure failures, data issues, scaling problems, and operational concerns.

Output the entire plan with the Review Notes section populated. Keep all other sections unchanged.`

const detailsPrompt = `Expand this plan with implementation details.

Your output must be the COMPLETE, EXPANDED plan, not a summary or a description of changes. Do not ask for permission.

Add or expand an ## Implementation Notes section with:

### Technology Stack
Exact languages, libraries and versions, build tools, and testing frameworks.

### Data Structures
The core types with field names, field types, and short documentation.

### Algorithms & Logic
Key algorithms as pseudocode or code, with the important implementation details.

### API Design
Where applicable: endpoint signatures, request and response schemas, error formats.

Start your response with the plan's YAML frontmatter (---) and include ALL sections. Output ONLY the plan.`

const breakdownPrompt = `Break this plan into precise, atomic steps.

Your output must be the COMPLETE plan with steps added, not a summary. Do not ask for permission.

For each ticket in the ## Tickets section add a #### Steps subsection:
- Numbered steps that are atomic and independently implementable
- Each step has a clear action and a verification method
- Each step fits in under 2 hours of work
- Name specific commands, files and technical details
- End each step with "Verify:" describing how to confirm completion

Start your response with the plan's YAML frontmatter (---) and include ALL sections. Output ONLY the plan.`

const deliverablesPrompt = `Add clear acceptance criteria for each ticket in the plan.

Your output must be the COMPLETE plan with acceptance criteria added, not a summary. Do not ask for permission.

For each ticket in the ## Tickets section add:

#### Acceptance Criteria
Numbered groups of specific, testable requirements as checkboxes (- [ ]).

#### Demo Script
Concrete commands or code that show the feature working, with expected output.

#### Test Requirements
Specific tests that must pass, as checkboxes.

Start your response with the plan's YAML frontmatter (---) and include ALL sections. Output ONLY the plan.`

func defaultReviewAgents() map[string]ReviewAgent {
	return map[string]ReviewAgent{
		"holes":        {Prompt: holesPrompt},
		"details":      {Prompt: detailsPrompt},
		"breakdown":    {Prompt: breakdownPrompt},
		"deliverables": {Prompt: deliverablesPrompt},
	}
}
