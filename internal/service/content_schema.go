package service

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldURL      FieldType = "url"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldList     FieldType = "list"
	FieldSecret   FieldType = "secret"
)

type Field struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
}

type SectionSchema struct {
	Page    string  `json:"page"`
	Section string  `json:"section"`
	Fields  []Field `json:"fields"`
}

func (s SectionSchema) field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

const (
	PageIntegrations       = "integrations"
	SectionEmailProvider   = "email_provider"
	SectionMailingList     = "mailing_list"
	IntegrationAPIKeyField = "api_key"
)

var knownSections = []SectionSchema{
	{Page: "home", Section: "hero", Fields: []Field{
		{Key: "title", Label: "Title", Type: FieldText},
		{Key: "subtitle", Label: "Subtitle", Type: FieldTextarea},
		{Key: "cta_label", Label: "Button label", Type: FieldText},
		{Key: "cta_url", Label: "Button link", Type: FieldURL},
		{Key: "image_url", Label: "Background image", Type: FieldURL},
	}},
	{Page: "home", Section: "impact_banner", Fields: []Field{
		{Key: "headline", Label: "Headline", Type: FieldText},
		{Key: "items_rehomed", Label: "Items rehomed", Type: FieldNumber},
		{Key: "visible", Label: "Show banner", Type: FieldBoolean},
	}},
	{Page: "about", Section: "story", Fields: []Field{
		{Key: "title", Label: "Title", Type: FieldText},
		{Key: "body", Label: "Body", Type: FieldTextarea},
		{Key: "image_url", Label: "Image", Type: FieldURL},
	}},
	{Page: "about", Section: "values", Fields: []Field{
		{Key: "title", Label: "Title", Type: FieldText},
		{Key: "items", Label: "Values", Type: FieldList},
	}},
	{Page: "contact", Section: "details", Fields: []Field{
		{Key: "email", Label: "Email", Type: FieldText},
		{Key: "phone", Label: "Phone", Type: FieldText},
		{Key: "address", Label: "Address", Type: FieldTextarea},
	}},
	{Page: "faq", Section: "questions", Fields: []Field{
		{Key: "items", Label: "Questions", Type: FieldList},
	}},
	{Page: PageIntegrations, Section: SectionEmailProvider, Fields: []Field{
		{Key: IntegrationAPIKeyField, Label: "API key", Type: FieldSecret},
		{Key: "from_address", Label: "From address", Type: FieldText},
		{Key: "reply_to", Label: "Reply-to", Type: FieldText},
	}},
	{Page: PageIntegrations, Section: SectionMailingList, Fields: []Field{
		{Key: IntegrationAPIKeyField, Label: "API key", Type: FieldSecret},
		{Key: "list_id", Label: "Audience id", Type: FieldText},
		{Key: "from_name", Label: "Sender name", Type: FieldText},
	}},
}

type sectionKey struct{ page, section string }

var schemaIndex = func() map[sectionKey]SectionSchema {
	idx := make(map[sectionKey]SectionSchema, len(knownSections))
	for _, s := range knownSections {
		idx[sectionKey{s.Page, s.Section}] = s
	}
	return idx
}()

// LookupSchema returns the field schema registered for a section.
func LookupSchema(page, section string) (SectionSchema, bool) {
	s, ok := schemaIndex[sectionKey{page, section}]
	return s, ok
}

// privatePages are never served by the public content endpoint.
var privatePages = map[string]bool{PageIntegrations: true}
