package schema

import (
	"encoding/json"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/db/ent/schema/utils"
)

type Document struct{ ent.Schema }

func (Document) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "documents"},
	}
}

func (Document) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("tax_return_id", uuid.UUID{}),
		field.String("category").NotEmpty().
			Validate(utils.EnumValidator(constants.AsStringSlice()...)),
		field.String("file_name").NotEmpty(),
		field.String("file_path").NotEmpty(),
		field.String("processing_status").
			Default(string(constants.StatusPending)).
			Validate(utils.EnumValidator(constants.ProcessingStatuses...)),
		field.String("ocr_text").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		// the whole extracted record, written once on completion
		field.JSON("extracted_data", json.RawMessage{}).Optional(),
		field.Float("confidence").Optional().Nillable().Min(0).Max(1),
		field.String("error_message").Optional().Nillable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (Document) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("tax_return", TaxReturn.Type).
			Ref("documents").
			Field("tax_return_id").
			Required().
			Unique(),
		edge.To("extracted_entries", ExtractedEntry.Type),
	}
}

func (Document) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tax_return_id"),
	}
}
