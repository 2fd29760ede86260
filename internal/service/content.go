package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reconciled is either Known or Unknown.
type Reconciled interface {
	isReconciled()
}

// Known is a section with a registered schema whose stored JSON is an
// object. Values holds the schema fields that are present with the right
// JSON type; Extra holds everything else so nothing is lost on save.
type Known struct {
	Schema SectionSchema
	Values map[string]any
	Extra  map[string]any
}

// Unknown is rendered with the raw JSON editor.
type Unknown struct {
	Raw json.RawMessage
}

func (Known) isReconciled()   {}
func (Unknown) isReconciled() {}

func (k Known) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string         `json:"kind"`
		Schema SectionSchema  `json:"schema"`
		Values map[string]any `json:"values"`
		Extra  map[string]any `json:"extra,omitempty"`
	}{"known", k.Schema, k.Values, k.Extra})
}

func (u Unknown) MarshalJSON() ([]byte, error) {
	raw := u.Raw
	if len(raw) == 0 || !json.Valid(raw) {
		quoted, err := json.Marshal(string(raw))
		if err != nil {
			return nil, err
		}
		raw = quoted
	}
	return json.Marshal(struct {
		Kind string          `json:"kind"`
		Raw  json.RawMessage `json:"raw"`
	}{"unknown", raw})
}

// Reconcile matches stored section JSON against the schema registry.
func Reconcile(page, section string, raw []byte) Reconciled {
	schema, ok := LookupSchema(page, section)
	if !ok {
		return Unknown{Raw: raw}
	}

	var obj map[string]any
	if len(raw) == 0 {
		obj = map[string]any{}
	} else if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return Unknown{Raw: raw}
	}

	known := Known{Schema: schema, Values: map[string]any{}, Extra: map[string]any{}}
	for k, v := range obj {
		f, ok := schema.field(k)
		if ok && fieldTypeMatches(f.Type, v) {
			known.Values[k] = v
			continue
		}
		known.Extra[k] = v
	}
	return known
}

func fieldTypeMatches(t FieldType, v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case FieldText, FieldTextarea, FieldURL, FieldSecret:
		_, ok := v.(string)
		return ok
	case FieldNumber:
		_, ok := v.(float64)
		return ok
	case FieldBoolean:
		_, ok := v.(bool)
		return ok
	case FieldList:
		_, ok := v.([]any)
		return ok
	}
	return false
}

// MaskSecret hides all but the last four characters.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return "********" + s[len(s)-4:]
}

func masked(r Reconciled) Reconciled {
	known, ok := r.(Known)
	if !ok {
		return r
	}
	values := make(map[string]any, len(known.Values))
	for k, v := range known.Values {
		if f, _ := known.Schema.field(k); f.Type == FieldSecret {
			s, _ := v.(string)
			values[k] = MaskSecret(s)
			continue
		}
		values[k] = v
	}
	known.Values = values
	return known
}

type SectionView struct {
	Page      string     `json:"page"`
	Section   string     `json:"section"`
	Content   Reconciled `json:"content"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ContentService interface {
	// PublicPage serves a page to the storefront. Secret fields are masked.
	PublicPage(ctx context.Context, page string) ([]*SectionView, error)
	List(ctx context.Context) ([]*SectionView, error)
	Get(ctx context.Context, page, section string) (*SectionView, error)
	Upsert(ctx context.Context, page, section string, raw []byte, userID string) (*SectionView, error)
	// Setting reads one unmasked string field. Missing sections and fields
	// read as "".
	Setting(ctx context.Context, page, section, field string) (string, error)
	Schemas() []SectionSchema
}

type contentServiceImpl struct {
	contentRepo repository.ContentRepository
}

func NewContentService(contentRepo repository.ContentRepository) ContentService {
	return &contentServiceImpl{
		contentRepo: contentRepo,
	}
}

func view(c *model.SiteContent) *SectionView {
	updatedAt := c.UpdatedAt
	return &SectionView{
		Page:      c.PageName,
		Section:   c.SectionKey,
		Content:   masked(Reconcile(c.PageName, c.SectionKey, c.Content)),
		UpdatedBy: c.UpdatedBy,
		UpdatedAt: &updatedAt,
	}
}

func (s *contentServiceImpl) PublicPage(ctx context.Context, page string) ([]*SectionView, error) {
	if privatePages[page] {
		return nil, ErrNotFound
	}

	rows, err := s.contentRepo.ListByPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list page content: %w", err)
	}

	views := make([]*SectionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, view(row))
	}
	return views, nil
}

func (s *contentServiceImpl) List(ctx context.Context) ([]*SectionView, error) {
	rows, err := s.contentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}

	views := make([]*SectionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, view(row))
	}
	return views, nil
}

func (s *contentServiceImpl) Get(ctx context.Context, page, section string) (*SectionView, error) {
	row, err := s.contentRepo.Find(ctx, page, section)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// a registered section that was never saved opens as an empty form
		if _, ok := LookupSchema(page, section); ok {
			return &SectionView{Page: page, Section: section, Content: Reconcile(page, section, nil)}, nil
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return view(row), nil
}

func (s *contentServiceImpl) Upsert(ctx context.Context, page, section string, raw []byte, userID string) (*SectionView, error) {
	page, section = strings.TrimSpace(page), strings.TrimSpace(section)
	if page == "" || section == "" {
		return nil, fmt.Errorf("%w: page and section are required", ErrValidation)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: content is not valid JSON", ErrInvalidContent)
	}

	doc := raw
	if schema, ok := LookupSchema(page, section); ok {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: %s/%s must be a JSON object", ErrInvalidContent, page, section)
		}
		if err := validateFields(schema, obj); err != nil {
			return nil, err
		}
		if err := s.keepSecrets(ctx, schema, obj); err != nil {
			return nil, err
		}

		var err error
		doc, err = json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}
	}

	row := &model.SiteContent{
		PageName:   page,
		SectionKey: section,
		Content:    datatypes.JSON(doc),
		UpdatedBy:  userID,
	}
	if err := s.contentRepo.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("save content: %w", err)
	}

	saved, err := s.contentRepo.Find(ctx, page, section)
	if err != nil {
		return nil, fmt.Errorf("reload content: %w", err)
	}
	return view(saved), nil
}

func validateFields(schema SectionSchema, obj map[string]any) error {
	for _, f := range schema.Fields {
		v, ok := obj[f.Key]
		if !ok {
			continue
		}
		if !fieldTypeMatches(f.Type, v) {
			return fmt.Errorf("%w: field %q must be %s", ErrInvalidContent, f.Key, f.Type)
		}
		if f.Type == FieldURL {
			if s, _ := v.(string); s != "" {
				if _, err := url.ParseRequestURI(s); err != nil {
					return fmt.Errorf("%w: field %q is not a valid URL", ErrInvalidContent, f.Key)
				}
			}
		}
	}
	return nil
}

// keepSecrets restores stored secrets when the editor sends back the masked
// value it was shown.
func (s *contentServiceImpl) keepSecrets(ctx context.Context, schema SectionSchema, obj map[string]any) error {
	var stored map[string]any
	loaded := false

	for _, f := range schema.Fields {
		if f.Type != FieldSecret {
			continue
		}
		incoming, _ := obj[f.Key].(string)
		if !strings.HasPrefix(incoming, "********") {
			continue
		}

		if !loaded {
			loaded = true
			row, err := s.contentRepo.Find(ctx, schema.Page, schema.Section)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load stored content: %w", err)
			}
			if row != nil {
				_ = json.Unmarshal(row.Content, &stored)
			}
		}

		prev, _ := stored[f.Key].(string)
		if prev != "" && MaskSecret(prev) == incoming {
			obj[f.Key] = prev
		}
	}
	return nil
}

func (s *contentServiceImpl) Setting(ctx context.Context, page, section, field string) (string, error) {
	row, err := s.contentRepo.Find(ctx, page, section)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get content: %w", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(row.Content, &obj); err != nil {
		return "", nil
	}
	v, _ := obj[field].(string)
	return v, nil
}

func (s *contentServiceImpl) Schemas() []SectionSchema {
	out := make([]SectionSchema, len(knownSections))
	copy(out, knownSections)
	return out
}
