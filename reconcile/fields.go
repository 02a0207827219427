package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
)

const defaultFieldKind = "textarea"

// CustomFields copies profile-mapped bepress fields into catalog custom
// field answers.
type CustomFields struct {
	Store   catalog.MetadataStore
	Profile *mapping.Profile
	Logger  *slog.Logger
}

// Apply creates the journal's custom fields on first use and updates the
// article's answers. Fields absent from the document are left alone.
func (cf *CustomFields) Apply(ctx context.Context, article *catalog.Article, doc *hub.Document) error {
	logger := cf.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for i, name := range cf.Profile.CustomFieldNames() {
		m, _ := cf.Profile.GetFieldMapping(name)

		value, ok := doc.Fields.Get(name)
		if !ok {
			value = m.Default
		}
		if m.Transform == "strip_html" {
			value = helpers.CleanText(value)
		}
		if value == "" {
			continue
		}

		kind := m.Kind
		if kind == "" {
			kind = defaultFieldKind
		}
		order := m.Order
		if order == 0 {
			order = i
		}
		field, _, err := cf.Store.GetOrCreateField(ctx, article.JournalID, m.Field, catalog.Field{Kind: kind, Order: order})
		if err != nil {
			return fmt.Errorf("custom field %q: %w", m.Field, err)
		}

		logger.Debug("setting custom field", "field", m.Field, "value", value)
		if _, _, err := cf.Store.UpdateOrCreateFieldAnswer(ctx, field.ID, article.ID, value); err != nil {
			return fmt.Errorf("custom field answer %q: %w", m.Field, err)
		}
	}
	return nil
}
