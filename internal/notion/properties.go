package notion

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"github.com/mrlokans/readsync/internal/entities"
)

// maxRichTextLength is the API limit for one rich text object.
const maxRichTextLength = 2000

const (
	sessionIconURL  = "https://www.notion.so/icons/target_red.svg"
	authorIconURL   = "https://www.notion.so/icons/user-circle-filled_gray.svg"
	categoryIconURL = "https://www.notion.so/icons/tag_gray.svg"
	dateIconURL     = "https://www.notion.so/icons/calendar_gray.svg"
)

// Reading

func plainText(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		return joinRichText(v.Title)
	case *notionapi.RichTextProperty:
		return joinRichText(v.RichText)
	case *notionapi.SelectProperty:
		return v.Select.Name
	case *notionapi.URLProperty:
		return v.URL
	case *notionapi.FormulaProperty:
		return v.Formula.String
	}
	return ""
}

func joinRichText(parts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range parts {
		if rt.PlainText != "" {
			sb.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			sb.WriteString(rt.Text.Content)
		}
	}
	return strings.TrimSpace(sb.String())
}

func numberValue(p notionapi.Property) (float64, bool) {
	if v, ok := p.(*notionapi.NumberProperty); ok {
		return v.Number, true
	}
	return 0, false
}

func checkboxValue(p notionapi.Property) bool {
	if v, ok := p.(*notionapi.CheckboxProperty); ok {
		return v.Checkbox
	}
	return false
}

func (w *Workspace) toTargetBook(page notionapi.Page) entities.TargetBook {
	s := w.schema.Book
	props := page.Properties

	book := entities.TargetBook{
		PageID:     page.ID.String(),
		BookID:     plainText(props[s.BookID]),
		Shelf:      plainText(props[s.Shelf]),
		HasCover:   page.Cover != nil,
		Status:     entities.ParseStatusLabel(plainText(props[s.Status])),
		MyRating:   entities.ParseRatingLabel(plainText(props[s.MyRating])),
		Archived:   checkboxValue(props[s.Archived]),
		CatalogURL: plainText(props[s.CatalogURL]),
	}
	if n, ok := numberValue(props[s.ReadingTime]); ok {
		seconds := int64(n)
		book.ReadingTime = &seconds
	}
	return book
}

func (w *Workspace) toTargetSession(page notionapi.Page) (entities.TargetSession, bool) {
	s := w.schema.Session
	ts, ok := numberValue(page.Properties[s.Timestamp])
	if !ok {
		return entities.TargetSession{}, false
	}
	seconds, _ := numberValue(page.Properties[s.Duration])
	return entities.TargetSession{
		PageID:    page.ID.String(),
		Timestamp: int64(ts),
		Seconds:   int64(seconds),
	}, true
}

// Writing

type propertySet notionapi.Properties

// set skips properties whose schema name is empty.
func (ps propertySet) set(name string, p notionapi.Property) {
	if name == "" {
		return
	}
	ps[name] = p
}

func titleProperty(content, link string) notionapi.TitleProperty {
	text := &notionapi.Text{Content: truncate(content)}
	if link != "" {
		text.Link = &notionapi.Link{Url: link}
	}
	return notionapi.TitleProperty{Title: []notionapi.RichText{{Text: text}}}
}

func richTextProperty(content string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: truncate(content)}}},
	}
}

func numberProperty(n float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Number: n}
}

func selectProperty(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

// clearedSelect empties a select property. notionapi.SelectProperty always
// sends an option, which the API rejects when its name is empty.
type clearedSelect struct{}

func (clearedSelect) GetID() string                   { return "" }
func (clearedSelect) GetType() notionapi.PropertyType { return notionapi.PropertyTypeSelect }

func (clearedSelect) MarshalJSON() ([]byte, error) {
	return []byte(`{"select":null}`), nil
}

func urlProperty(url string) notionapi.URLProperty {
	return notionapi.URLProperty{URL: url}
}

func dateProperty(start time.Time, end *time.Time) notionapi.DateProperty {
	s := notionapi.Date(start)
	obj := &notionapi.DateObject{Start: &s}
	if end != nil {
		e := notionapi.Date(*end)
		obj.End = &e
	}
	return notionapi.DateProperty{Date: obj}
}

func relationProperty(ids ...string) notionapi.RelationProperty {
	relations := make([]notionapi.Relation, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			relations = append(relations, notionapi.Relation{ID: notionapi.PageID(id)})
		}
	}
	return notionapi.RelationProperty{Relation: relations}
}

func externalIcon(url string) *notionapi.Icon {
	return &notionapi.Icon{
		Type:     notionapi.FileTypeExternal,
		External: &notionapi.FileObject{URL: url},
	}
}

func externalImage(url string) *notionapi.Image {
	return &notionapi.Image{
		Type:     notionapi.FileTypeExternal,
		External: &notionapi.FileObject{URL: url},
	}
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxRichTextLength {
		return s
	}
	return string([]rune(s)[:maxRichTextLength])
}

func (w *Workspace) bookProperties(page *entities.BookPage) notionapi.Properties {
	s := w.schema.Book
	props := propertySet{}

	props.set(s.Status, selectProperty(page.Status.Label()))
	props.set(s.Progress, numberProperty(page.Progress))
	props.set(s.ReadingTime, numberProperty(float64(page.ReadingTime)))
	props.set(s.ReadingDays, numberProperty(float64(page.ReadingDays)))
	if page.PublicRating != nil {
		props.set(s.Rating, numberProperty(*page.PublicRating))
	}
	if page.CoverURL != "" {
		props.set(s.Cover, urlProperty(page.CoverURL))
	}
	switch {
	case page.Shelf != "":
		props.set(s.Shelf, selectProperty(page.Shelf))
	case page.Creation == nil:
		// The book left its archive folder since the last write.
		props.set(s.Shelf, clearedSelect{})
	}
	if page.MyRating != "" {
		props.set(s.MyRating, selectProperty(page.MyRating.Label()))
	}
	if page.ActivityDate != nil {
		props.set(s.Date, dateProperty(*page.ActivityDate, nil))
	}
	if page.WindowStart != nil && page.WindowEnd != nil {
		props.set(s.ReadingWindow, dateProperty(*page.WindowStart, page.WindowEnd))
	}
	if page.YearRef != "" {
		props.set(s.Year, relationProperty(page.YearRef))
	}
	if page.MonthRef != "" {
		props.set(s.Month, relationProperty(page.MonthRef))
	}

	if c := page.Creation; c != nil {
		props.set(s.Title, titleProperty(c.Title, c.DeepLink))
		props.set(s.BookID, richTextProperty(c.BookID))
		props.set(s.Link, urlProperty(c.DeepLink))
		props.set(s.Publisher, richTextProperty(c.Publisher))
		if c.ISBN != "" {
			props.set(s.ISBN, richTextProperty(c.ISBN))
		}
		if c.Intro != "" {
			props.set(s.Intro, richTextProperty(c.Intro))
		}
		if c.CatalogURL != "" {
			props.set(s.CatalogURL, urlProperty(c.CatalogURL))
		}
		if len(c.AuthorRefs) > 0 {
			props.set(s.Authors, relationProperty(c.AuthorRefs...))
		}
		if len(c.CategoryRefs) > 0 {
			props.set(s.Categories, relationProperty(c.CategoryRefs...))
		}
	}

	return notionapi.Properties(props)
}

func (w *Workspace) sessionProperties(bookPageID string, session entities.ReadingSession) notionapi.Properties {
	s := w.schema.Session
	day := session.Day.In(w.loc)

	props := propertySet{}
	props.set(s.Title, titleProperty(day.Format("2006-01-02"), ""))
	props.set(s.Date, dateProperty(day, nil))
	props.set(s.Duration, numberProperty(float64(session.Seconds)))
	props.set(s.Timestamp, numberProperty(float64(session.Timestamp)))
	props.set(s.Book, relationProperty(bookPageID))
	return notionapi.Properties(props)
}
