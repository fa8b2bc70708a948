package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/httpclient"
	"go.uber.org/zap"
)

// Notion property names of the diagnostics data source.
const (
	propName      = "Nome"
	propEmail     = "Email"
	propCompany   = "Escritório"
	propScore     = "Score"
	propLevel     = "Nível"
	propResultURL = "Link Resultado"
	propCreated   = "Data"
)

var answerProps = [domain.QuestionCount]string{"Q1", "Q2", "Q3", "Q4"}

// RequiredProperties lists the properties the data source must define.
func RequiredProperties() []string {
	props := []string{propName, propEmail, propCompany, propScore, propLevel}
	props = append(props, answerProps[:]...)
	return append(props, propResultURL, propCreated)
}

// notionPageSize is the largest page the query endpoint returns.
const notionPageSize = 100

// NotionStore persists records as pages of a Notion data source.
//
// Pages are parsed into StoredRecord at this boundary; a page whose answers
// do not parse is skipped.
type NotionStore struct {
	client       *httpclient.Client
	baseURL      string
	dataSourceID string
	logger       *zap.Logger
}

// NewNotionStore creates a NotionStore.
func NewNotionStore(cfg config.NotionConfig, maxRetries int, logger *zap.Logger) *NotionStore {
	return &NotionStore{
		client: httpclient.New(httpclient.Config{
			Timeout:    cfg.Timeout,
			MaxRetries: maxRetries,
			Headers: map[string]string{
				"Authorization":  "Bearer " + cfg.APIKey,
				"Notion-Version": cfg.Version,
			},
		}, logger.Named("notion_http")),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		dataSourceID: cfg.DataSourceID,
		logger:       logger.Named("notion_store"),
	}
}

// Wire types. Only the fields this store reads or writes are modelled.

type notionText struct {
	PlainText string             `json:"plain_text,omitempty"`
	Text      *notionTextContent `json:"text,omitempty"`
}

type notionTextContent struct {
	Content string `json:"content"`
}

type notionSelect struct {
	Name string `json:"name"`
}

type notionProperty struct {
	Type        string        `json:"type,omitempty"`
	Title       []notionText  `json:"title,omitempty"`
	RichText    []notionText  `json:"rich_text,omitempty"`
	Email       *string       `json:"email,omitempty"`
	Number      *float64      `json:"number,omitempty"`
	Select      *notionSelect `json:"select,omitempty"`
	URL         *string       `json:"url,omitempty"`
	CreatedTime *time.Time    `json:"created_time,omitempty"`
}

type notionPage struct {
	Object      string                    `json:"object"`
	ID          string                    `json:"id"`
	CreatedTime time.Time                 `json:"created_time"`
	Properties  map[string]notionProperty `json:"properties"`
}

type notionParent struct {
	Type         string `json:"type"`
	DataSourceID string `json:"data_source_id"`
}

type createPageRequest struct {
	Parent     notionParent              `json:"parent"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionSort struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
}

type notionURLFilter struct {
	Contains string `json:"contains"`
}

type notionFilter struct {
	Property string          `json:"property"`
	URL      notionURLFilter `json:"url"`
}

type queryRequest struct {
	Filter      *notionFilter `json:"filter,omitempty"`
	Sorts       []notionSort  `json:"sorts,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
	PageSize    int           `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

type dataSourceResponse struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func title(s string) []notionText {
	return []notionText{{Text: &notionTextContent{Content: s}}}
}

func strPtr(s string) *string { return &s }

// Create adds a page for rec and returns the Notion page id.
func (n *NotionStore) Create(ctx context.Context, rec domain.StoredRecord) (string, error) {
	score := float64(rec.Score)
	props := map[string]notionProperty{
		propName:      {Title: title(rec.ClientName)},
		propEmail:     {Email: strPtr(rec.ClientEmail)},
		propCompany:   {RichText: title(rec.CompanyName)},
		propScore:     {Number: &score},
		propLevel:     {Select: &notionSelect{Name: levelName(rec.Level)}},
		propResultURL: {URL: strPtr(rec.ResultURL)},
	}
	for i, a := range rec.Answers.All() {
		props[answerProps[i]] = notionProperty{Select: &notionSelect{Name: string(a)}}
	}

	req := createPageRequest{
		Parent:     notionParent{Type: "data_source_id", DataSourceID: n.dataSourceID},
		Properties: props,
	}

	var page notionPage
	if err := n.client.DoJSON(ctx, "notion create page", http.MethodPost, n.baseURL+"/pages", req, &page); err != nil {
		return "", err
	}

	n.logger.Debug("page created", zap.String("id", rec.ID), zap.String("page_id", page.ID))
	return page.ID, nil
}

// GetByID finds the page whose result link ends in the given id.
func (n *NotionStore) GetByID(ctx context.Context, id string) (*domain.StoredRecord, error) {
	req := queryRequest{
		Filter: &notionFilter{Property: propResultURL, URL: notionURLFilter{Contains: id}},
	}

	var resp queryResponse
	if err := n.client.DoJSON(ctx, "notion query", http.MethodPost, n.queryURL(), req, &resp); err != nil {
		return nil, err
	}

	// "contains" also matches longer ids sharing the prefix
	for _, page := range resp.Results {
		rec, err := parsePage(page)
		if err != nil {
			n.logger.Warn("skipping malformed page", zap.String("page_id", page.ID), zap.Error(err))
			continue
		}
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

// List returns every page, newest first, following pagination.
func (n *NotionStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	req := queryRequest{
		Sorts:    []notionSort{{Timestamp: "created_time", Direction: "descending"}},
		PageSize: notionPageSize,
	}

	out := make([]domain.StoredRecord, 0)
	for {
		var resp queryResponse
		if err := n.client.DoJSON(ctx, "notion query", http.MethodPost, n.queryURL(), req, &resp); err != nil {
			return nil, err
		}

		for _, page := range resp.Results {
			rec, err := parsePage(page)
			if err != nil {
				n.logger.Warn("skipping malformed page", zap.String("page_id", page.ID), zap.Error(err))
				continue
			}
			out = append(out, rec)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}

	SortNewestFirst(out)
	return out, nil
}

// Ping retrieves the data source and checks that every required property
// exists.
func (n *NotionStore) Ping(ctx context.Context) error {
	missing, err := n.MissingProperties(ctx)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: notion data source is missing properties %s",
			domain.ErrCollaboratorUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

// MissingProperties returns the required properties the data source lacks,
// sorted by name.
func (n *NotionStore) MissingProperties(ctx context.Context) ([]string, error) {
	var ds dataSourceResponse
	u := n.baseURL + "/data_sources/" + url.PathEscape(n.dataSourceID)
	if err := n.client.DoJSON(ctx, "notion get data source", http.MethodGet, u, nil, &ds); err != nil {
		return nil, err
	}

	var missing []string
	for _, p := range RequiredProperties() {
		if _, ok := ds.Properties[p]; !ok {
			missing = append(missing, p)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// Close is a no-op.
func (n *NotionStore) Close() error { return nil }

func (n *NotionStore) queryURL() string {
	return n.baseURL + "/data_sources/" + url.PathEscape(n.dataSourceID) + "/query"
}

// parsePage converts a page into a StoredRecord, rejecting pages whose
// answers are missing or outside A..D.
func parsePage(page notionPage) (domain.StoredRecord, error) {
	props := page.Properties

	var answers [domain.QuestionCount]string
	for i, name := range answerProps {
		sel := props[name].Select
		if sel == nil {
			return domain.StoredRecord{}, fmt.Errorf("%w: %s is empty", domain.ErrInvalidAnswer, name)
		}
		answers[i] = sel.Name
	}
	parsed, err := domain.AnswersFromString(strings.Join(answers[:], ""))
	if err != nil {
		return domain.StoredRecord{}, err
	}

	resultURL := derefString(props[propResultURL].URL)
	id, ok := IDFromResultURL(resultURL)
	if !ok {
		id = page.ID
	}

	created := page.CreatedTime
	if created.IsZero() && props[propCreated].CreatedTime != nil {
		created = *props[propCreated].CreatedTime
	}
	if created.IsZero() {
		return domain.StoredRecord{}, fmt.Errorf("page %s has no creation time", page.ID)
	}

	rec := domain.StoredRecord{
		ID:          id,
		ExternalID:  page.ID,
		ClientName:  firstText(props[propName].Title),
		ClientEmail: derefString(props[propEmail].Email),
		CompanyName: firstText(props[propCompany].RichText),
		Answers:     parsed,
		Level:       parseLevel(props[propLevel].Select),
		ResultURL:   resultURL,
		CreatedAt:   created.UTC(),
	}
	if n := props[propScore].Number; n != nil {
		rec.Score = int(*n)
	}
	return rec, nil
}

func firstText(items []notionText) string {
	if len(items) == 0 {
		return ""
	}
	if items[0].PlainText != "" {
		return items[0].PlainText
	}
	if items[0].Text != nil {
		return items[0].Text.Content
	}
	return ""
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// levelOptions are the Nível select options of the data source.
var levelOptions = map[domain.Level]string{
	domain.LevelBeginner:     "Iniciante",
	domain.LevelIntermediate: "Intermediário",
	domain.LevelAdvanced:     "Avançado",
}

// levelName is the select option written for a level.
func levelName(l domain.Level) string {
	return levelOptions[l]
}

// parseLevel accepts the Portuguese options of the data source and the
// English level names.
func parseLevel(sel *notionSelect) domain.Level {
	if sel == nil {
		return ""
	}
	switch strings.ToLower(sel.Name) {
	case "beginner", "iniciante":
		return domain.LevelBeginner
	case "intermediate", "intermediário", "intermediario":
		return domain.LevelIntermediate
	case "advanced", "avançado", "avancado":
		return domain.LevelAdvanced
	default:
		return domain.Level(strings.ToLower(sel.Name))
	}
}
