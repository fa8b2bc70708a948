package ai

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
)

// DefaultPromptBuilder implements PromptBuilder with templated prompts.
type DefaultPromptBuilder struct {
	systemPrompt string
	userTemplate *template.Template
	dimensions   [domain.QuestionCount]string
}

// systemPromptText defines the consultant role and the writing rules.
// This prompt is versioned as code and can be reviewed/tested.
const systemPromptText = `Você é um consultor especializado em maturidade tecnológica para escritórios de advocacia.

Seu papel é enriquecer a devolutiva do diagnóstico com insights personalizados e contextualizados.

REGRAS:
- Nunca use emojis
- Seja direto e objetivo
- Fale como uma consultoria experiente, clara e respeitosa
- Foque em clareza, execução possível, controle, previsibilidade e alívio operacional
- Sem vendas, sem exageros, sem promessas mágicas
- Personalize a análise para o nome do escritório quando fornecido

Forneça:
1. Uma análise breve (2-3 parágrafos) do cenário geral identificado
2. Uma recomendação prioritária específica para o contexto
3. Um insight sobre o potencial de evolução do escritório`

// userPromptTemplate defines how the diagnostic is presented to the model.
const userPromptTemplate = `Analise o diagnóstico de maturidade tecnológica abaixo e forneça uma análise enriquecida:

Escritório: {{.CompanyName}}
Score de Maturidade: {{.Score.Score}}/5 ({{.Score.Level}})
Pontos totais: {{.Score.TotalPoints}}/16

Respostas:
{{range .Answers}}- {{.Dimension}}: {{.Answer}}
{{end}}
Pontos Fortes Identificados:
{{range .Strengths}}- {{.}}
{{end}}
Gargalos Identificados:
{{range .Gaps}}- {{.}}
{{end}}`

type promptAnswer struct {
	Dimension string
	Answer    domain.Answer
}

// NewDefaultPromptBuilder creates a prompt builder whose dimension names
// come from the question titles of catalog.
func NewDefaultPromptBuilder(catalog *content.Catalog) (*DefaultPromptBuilder, error) {
	tmpl, err := template.New("user_prompt").Parse(userPromptTemplate)
	if err != nil {
		return nil, err
	}

	b := &DefaultPromptBuilder{
		systemPrompt: systemPromptText,
		userTemplate: tmpl,
	}
	for i := range b.dimensions {
		if q, ok := catalog.Question(i + 1); ok {
			b.dimensions[i] = q.Title
		} else {
			b.dimensions[i] = fmt.Sprintf("Pergunta %d", i+1)
		}
	}
	return b, nil
}

// BuildSystemPrompt returns the system prompt.
func (p *DefaultPromptBuilder) BuildSystemPrompt() string {
	return p.systemPrompt
}

// BuildUserPrompt renders the diagnostic context for the model.
func (p *DefaultPromptBuilder) BuildUserPrompt(in EnrichmentInput) (string, error) {
	answers := make([]promptAnswer, 0, domain.QuestionCount)
	for i, a := range in.Answers.All() {
		answers = append(answers, promptAnswer{Dimension: p.dimensions[i], Answer: a})
	}

	data := struct {
		CompanyName string
		Score       domain.ScoreResult
		Answers     []promptAnswer
		Strengths   []string
		Gaps        []string
	}{
		CompanyName: in.CompanyName,
		Score:       in.Score,
		Answers:     answers,
		Strengths:   in.Strengths,
		Gaps:        in.Gaps,
	}

	var buf bytes.Buffer
	if err := p.userTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render user prompt: %w", err)
	}
	return buf.String(), nil
}
