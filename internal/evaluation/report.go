package evaluation

import (
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Report summarises one evaluation run.
type Report struct {
	Total   int      `json:"total"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

func NewReport(results []Result) Report {
	r := Report{Total: len(results), Results: results}
	for _, res := range results {
		if res.Success {
			r.Passed++
		} else {
			r.Failed++
		}
	}
	return r
}

// Failures returns the failed results in scenario order.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

const reportTemplate = `
--- FINAL EVALUATION SUMMARY ---
Total Scenarios Run: {{ .Total }}
Tests Passed: {{ .Passed }}
Tests Failed: {{ .Failed }}
{{ with .Failures }}
--- FAILED SCENARIOS ---
{{- range . }}
  [FAIL] {{ .ScenarioID }}: {{ .Reason }}
         Output: '{{ .FinalResponse | truncChars 80 }}...'
{{- end }}
{{ else }}
All evaluation scenarios passed!
{{ end -}}
`

var reportTmpl = template.Must(template.New("report").Funcs(reportFuncs()).Parse(reportTemplate))

// reportFuncs is sprig plus truncChars. sprig's trunc cuts bytes and can
// split a multi-byte character.
func reportFuncs() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["truncChars"] = truncChars
	return funcs
}

func truncChars(n int, s string) string {
	runes := []rune(s)
	if n < 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Render writes the human-readable summary to w.
func (r Report) Render(w io.Writer) error {
	if err := reportTmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
