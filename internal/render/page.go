package render

import (
	"embed"
	"html/template"
	"strings"

	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// ResultTemplateName is the template name of the result page.
const ResultTemplateName = "result.html"

// ResultPage builds the HTML result view of a record.
type ResultPage struct {
	catalog *content.Catalog
	tmpl    *template.Template
}

// PlanView is one present action plan with its question title.
type PlanView struct {
	Title string
	Plan  *domain.ActionPlan
}

// ResultView is the data rendered by the result page.
type ResultView struct {
	NotFound    bool
	ID          string
	ClientName  string
	CompanyName string
	Score       int
	ScoreColor  string
	LevelLabel  string
	Description string
	Strengths   []string
	Gaps        []string
	Enriched    []string
	Plans       []PlanView
	PDFURL      string
}

// NewResultPage parses the embedded page template.
func NewResultPage(catalog *content.Catalog) (*ResultPage, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+ResultTemplateName)
	if err != nil {
		return nil, err
	}
	return &ResultPage{catalog: catalog, tmpl: tmpl}, nil
}

// Template returns the parsed templates, for gin's SetHTMLTemplate.
func (p *ResultPage) Template() *template.Template {
	return p.tmpl
}

// View builds the page data for rec.
func (p *ResultPage) View(rec *domain.DiagnosticRecord) ResultView {
	score := rec.Devolutiva.Score
	v := ResultView{
		ID:          rec.ID,
		ClientName:  rec.ClientName,
		CompanyName: rec.CompanyName,
		Score:       score.Score,
		ScoreColor:  ScoreColor(score.Score),
		LevelLabel:  p.catalog.LevelLabel(score.Level),
		Description: p.catalog.ScoreDescription(score.Score),
		Strengths:   rec.Devolutiva.Strengths,
		Gaps:        rec.Devolutiva.Gaps,
		Enriched:    paragraphs(rec.Devolutiva.EnrichedContent),
		PDFURL:      "/api/v1/diagnostics/" + rec.ID + "/pdf",
	}
	for _, slot := range rec.Devolutiva.ActionPlans {
		if !slot.Present() {
			continue
		}
		title := ""
		if q, ok := p.catalog.Question(slot.QuestionID); ok {
			title = q.Title
		}
		v.Plans = append(v.Plans, PlanView{Title: title, Plan: slot.Plan})
	}
	return v
}

// NotFoundView is the page data for an unknown id.
func NotFoundView() ResultView {
	return ResultView{NotFound: true}
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
