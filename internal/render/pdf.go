// Package render turns a diagnostic record into its printable PDF and its
// HTML result page. Rendering is a pure function of the record.
package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Renderer produces the PDF document for a record.
type Renderer interface {
	Render(rec *domain.DiagnosticRecord) ([]byte, error)
}

// Page layout in millimetres.
const (
	pageMargin  = 20.0
	lineHeight  = 5.5
	gaugeWidthM = 70.0
)

// fontFamily names the Go TTFs, registered as UTF-8 fonts.
const fontFamily = "Go"

const (
	documentTitle = "Diagnóstico de Maturidade Tecnológica"
	taglineLight  = "Sem vendas. Sem exageros. Sem promessas mágicas."
	taglineBold   = "Só controle, previsibilidade e alívio operacional."
)

// PDFRenderer lays out records with fpdf.
type PDFRenderer struct {
	catalog  *content.Catalog
	compress bool
	logger   *zap.Logger
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer(catalog *content.Catalog, logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{
		catalog:  catalog,
		compress: true,
		logger:   logger.Named("pdf_renderer"),
	}
}

type document struct {
	pdf *fpdf.Fpdf
}

// Render builds the PDF. Any failure wraps domain.ErrRender.
func (r *PDFRenderer) Render(rec *domain.DiagnosticRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", domain.ErrRender)
	}
	score := rec.Devolutiva.Score

	gauge, err := DrawGauge(score.Score)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(documentTitle, true)
	pdf.SetAuthor(rec.CompanyName, true)
	pdf.SetCreationDate(rec.CreatedAt)
	pdf.SetModificationDate(rec.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(r.compress)
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", goitalic.TTF)

	d := &document{pdf: pdf}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(156, 163, 175)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s | Página %d", documentTitle, pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	d.header(rec)
	d.scoreBox(score, gauge, r.catalog)
	d.bulletSection("Pontos Fortes", rec.Devolutiva.Strengths, 22, 163, 74)
	d.bulletSection("Gargalos Identificados", rec.Devolutiva.Gaps, 220, 38, 38)

	if rec.Devolutiva.EnrichedContent != "" {
		d.heading("Análise Personalizada", 37, 99, 235)
		d.paragraph(rec.Devolutiva.EnrichedContent)
	}

	d.actionPlans(rec.Devolutiva.ActionPlans, r.catalog)
	d.tagline()

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}

	r.logger.Debug("pdf rendered", zap.String("id", rec.ID), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (d *document) header(rec *domain.DiagnosticRecord) {
	d.pdf.SetFont(fontFamily, "B", 18)
	d.pdf.SetTextColor(17, 24, 39)
	d.pdf.CellFormat(0, 10, documentTitle, "", 1, "C", false, 0, "")

	d.pdf.SetFont(fontFamily, "", 11)
	d.pdf.SetTextColor(107, 114, 128)
	sub := rec.CompanyName
	if rec.ClientName != "" {
		sub += " | " + rec.ClientName
	}
	d.pdf.CellFormat(0, 6, sub, "", 1, "C", false, 0, "")
	if !rec.CreatedAt.IsZero() {
		d.pdf.CellFormat(0, 6, rec.CreatedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")
	}
	d.pdf.Ln(4)
}

func (d *document) scoreBox(score domain.ScoreResult, gauge []byte, catalog *content.Catalog) {
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	d.pdf.RegisterImageOptionsReader("gauge", opts, bytes.NewReader(gauge))

	pageW, _ := d.pdf.GetPageSize()
	x := (pageW - gaugeWidthM) / 2
	y := d.pdf.GetY()
	h := gaugeWidthM * float64(gaugeHeight) / float64(gaugeWidth)
	d.pdf.ImageOptions("gauge", x, y, gaugeWidthM, h, false, opts, 0, "")
	d.pdf.SetY(y + h + 2)

	r, g, b := hexRGB(ScoreColor(score.Score))
	d.pdf.SetFont(fontFamily, "B", 28)
	d.pdf.SetTextColor(r, g, b)
	d.pdf.CellFormat(0, 12, fmt.Sprintf("%d/5", score.Score), "", 1, "C", false, 0, "")

	d.pdf.SetFont(fontFamily, "B", 13)
	d.pdf.SetTextColor(17, 24, 39)
	d.pdf.CellFormat(0, 7, catalog.LevelLabel(score.Level), "", 1, "C", false, 0, "")

	if desc := catalog.ScoreDescription(score.Score); desc != "" {
		d.pdf.SetFont(fontFamily, "", 10)
		d.pdf.SetTextColor(75, 85, 99)
		d.pdf.MultiCell(0, lineHeight, desc, "", "C", false)
	}
	d.pdf.Ln(6)
}

func (d *document) heading(title string, r, g, b int) {
	d.pdf.SetFont(fontFamily, "B", 13)
	d.pdf.SetTextColor(r, g, b)
	d.pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) subheading(title string) {
	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.SetTextColor(107, 114, 128)
	d.pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.SetTextColor(31, 41, 55)
	d.pdf.MultiCell(0, lineHeight, text, "", "L", false)
	d.pdf.Ln(2)
}

func (d *document) bullets(items []string) {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.SetTextColor(31, 41, 55)
	for _, item := range items {
		d.pdf.MultiCell(0, lineHeight, "• "+item, "", "L", false)
	}
	d.pdf.Ln(2)
}

func (d *document) bulletSection(title string, items []string, r, g, b int) {
	if len(items) == 0 {
		return
	}
	d.heading(title, r, g, b)
	d.bullets(items)
	d.pdf.Ln(2)
}

func (d *document) actionPlans(plans domain.ActionPlanSet, catalog *content.Catalog) {
	first := true
	for _, slot := range plans {
		if !slot.Present() {
			continue
		}
		if first {
			d.pdf.AddPage()
			d.heading("Plano de Ação", 37, 99, 235)
			first = false
		}

		title := fmt.Sprintf("Pergunta %d", slot.QuestionID)
		if q, ok := catalog.Question(slot.QuestionID); ok {
			title = q.Title
		}
		d.pdf.SetFont(fontFamily, "B", 12)
		d.pdf.SetTextColor(17, 24, 39)
		d.pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")

		plan := slot.Plan
		d.subheading("Cenário Real")
		d.pdf.SetFont(fontFamily, "I", 10)
		d.pdf.SetTextColor(55, 65, 81)
		d.pdf.MultiCell(0, lineHeight, plan.Scenario, "", "L", false)
		d.pdf.Ln(2)

		d.subheading("Como Grandes Escritórios Fazem")
		d.paragraph(plan.BestPractice)

		d.pdf.SetFillColor(239, 246, 255)
		d.pdf.SetFont(fontFamily, "B", 10)
		d.pdf.SetTextColor(30, 64, 175)
		d.pdf.MultiCell(0, lineHeight+1, "Seu Próximo Passo: "+plan.NextStep, "", "L", true)
		d.pdf.Ln(2)

		d.subheading("O Que Fazer")
		d.paragraph(plan.WhatToDo)

		if len(plan.HowToDo) > 0 {
			d.subheading("Como Fazer")
			d.bullets(plan.HowToDo)
		}
		if len(plan.PracticalExamples) > 0 {
			d.subheading("Exemplos Práticos")
			d.bullets(plan.PracticalExamples)
		}
		if len(plan.SuggestedTools) > 0 {
			d.subheading("Ferramentas Sugeridas")
			d.bullets(plan.SuggestedTools)
		}

		d.subheading("Resultado Esperado")
		d.paragraph(plan.ExpectedResult)
		d.pdf.Ln(4)
	}
}

func (d *document) tagline() {
	d.pdf.Ln(6)
	d.pdf.SetFont(fontFamily, "", 9)
	d.pdf.SetTextColor(107, 114, 128)
	d.pdf.CellFormat(0, 5, taglineLight, "", 1, "C", false, 0, "")
	d.pdf.SetFont(fontFamily, "B", 9)
	d.pdf.SetTextColor(31, 41, 55)
	d.pdf.CellFormat(0, 5, taglineBold, "", 1, "C", false, 0, "")
}
