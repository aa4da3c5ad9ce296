package suggest

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

const systemPrompt = "You are an expert in carbon footprint analysis for construction and manufacturing projects. Respond with strict JSON only."

//nolint:gochecknoglobals // Parsed once; templates are safe for concurrent use.
var promptTemplate = template.Must(template.New("suggest").Funcs(template.FuncMap{
	"kg":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"join": func(items []string) string { return strings.Join(items, "; ") },
}).Parse(`Analyze the provided carbon emission data and provide a concise assessment and actionable recommendations for improvement.
The analysis must be written in French.

Data:
- Total emissions: {{kg .Summary.TotalEmissions}} kgCO2e
- Material emissions: {{kg .Summary.MaterialEmissions}} kgCO2e
- Manufacturing emissions: {{kg .Summary.ManufacturingEmissions}} kgCO2e
- Implementation emissions: {{kg .Summary.ImplementationEmissions}} kgCO2e
- Transport emissions: {{kg .Summary.TransportEmissions}} kgCO2e
- End-of-life emissions: {{kg .Summary.EndOfLifeEmissions}} kgCO2e

Emission details:
- Materials: {{join .Details.Materials}}
- Manufacturing: {{join .Details.Manufacturing}}
- Implementation: {{join .Details.Implementation}}
- Transport: {{join .Details.Transport}}
- End-of-life: {{join .Details.EndOfLife}}

User comments: {{if .Comments}}{{.Comments}}{{else}}none{{end}}

Return ONLY a single JSON object with these keys:
- assessment (string): one or two sentences identifying the main emission hotspots.
- recommendations (array of strings): 3 to 5 specific, actionable recommendations focused on the areas with the highest impact, such as alternative materials, different transport modes or process optimizations.
`))

// BuildPrompt renders the user prompt for req.
func BuildPrompt(req Request) (string, error) {
	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, req); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return sb.String(), nil
}

// parseResponse decodes a model answer, tolerating surrounding code fences.
func parseResponse(raw string) (Response, error) {
	clean := stripCodeFences(raw)
	if clean == "" {
		return Response{}, fmt.Errorf("empty response")
	}
	var resp Response
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return Response{}, fmt.Errorf("parsing response JSON: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return Response{}, err
	}
	resp.Assessment = strings.TrimSpace(resp.Assessment)
	recs := resp.Recommendations[:0]
	for _, r := range resp.Recommendations {
		if r = strings.TrimSpace(r); r != "" {
			recs = append(recs, r)
		}
	}
	resp.Recommendations = recs
	return resp, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if _, rest, ok := strings.Cut(s, "\n"); ok {
		s = rest
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
