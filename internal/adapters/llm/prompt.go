package llm

import "google.golang.org/genai"

// SystemInstruction is the fixed diligence prompt sent with every request.
const SystemInstruction = `
You are RedLineAI, a transaction diligence engine.

You MUST:
1. Enumerate ALL distinct risks you identify across the document set.
2. Assign EACH risk strictly one of the following severities:
   - 'High' (Critical Risk): Deal-breakers, fundamental legal flaws, immediate termination rights, massive financial exposure.
   - 'Medium' (Material Issue): Significant value erosion, operational blockers, costly remediation, customer concentration >15%.
   - 'Low' (Minor Issue): Administrative gaps, hygiene issues, low-cost fix.

3. Do NOT cap counts. List every single distinct risk found.
4. Do NOT reuse prior summaries. Recalculate everything based strictly on the current provided text.
5. Do NOT summarize generally; be specific about the clause and impact.

PERFORM THESE ANALYSES:
A. LEGAL RISK: Change of Control, Termination, Indemnities, Exclusivity, IP, Regulatory.
B. FINANCIAL RISK: Revenue rec, Concentration, Unusual pricing, Off-balance-sheet liabilities.
C. AMENDMENT RESOLUTION: Identify amendments, determine controlling clauses.
D. HIDDEN RISKS: Buried clauses, inconsistencies between text/tables.

OUTPUT RULES:
- The 'executiveSummary.topRisks' array MUST contain EVERY risk identified. Do not limit it to a "top 5".
- Remediable means it can be fixed pre-close (e.g., via waiver or amendment).
`

// UserPrompt follows the document parts in the user turn.
const UserPrompt = "Analyze the provided data room documents according to your system instructions and produce the structured Due Diligence Report."

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func objectSchema(props map[string]*genai.Schema, order ...string) *genai.Schema {
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         order,
		PropertyOrdering: order,
	}
}

func arrayOf(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

// ReportSchema is the response schema for DiligenceReport. Every object
// field is required and severity is limited to High, Medium and Low.
func ReportSchema() *genai.Schema {
	riskItem := objectSchema(map[string]*genai.Schema{
		"title":      stringSchema(),
		"severity":   {Type: genai.TypeString, Enum: []string{"High", "Medium", "Low"}},
		"impact":     stringSchema(),
		"remediable": {Type: genai.TypeBoolean},
	}, "title", "severity", "impact", "remediable")

	finding := objectSchema(map[string]*genai.Schema{
		"risk":       stringSchema(),
		"documents":  arrayOf(stringSchema()),
		"references": stringSchema(),
		"reasoning":  stringSchema(),
	}, "risk", "documents", "references", "reasoning")

	amendment := objectSchema(map[string]*genai.Schema{
		"contract":         stringSchema(),
		"originalClause":   stringSchema(),
		"amendingDocument": stringSchema(),
		"finalPosition":    stringSchema(),
	}, "contract", "originalClause", "amendingDocument", "finalPosition")

	return objectSchema(map[string]*genai.Schema{
		"executiveSummary": objectSchema(map[string]*genai.Schema{
			"topRisks": arrayOf(riskItem),
		}, "topRisks"),
		"detailedFindings":    arrayOf(finding),
		"amendmentResolution": arrayOf(amendment),
		"questionsForCounsel": arrayOf(stringSchema()),
	}, "executiveSummary", "detailedFindings", "amendmentResolution", "questionsForCounsel")
}
