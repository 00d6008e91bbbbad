package schema

import (
	"encoding/json"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

type ExtractedEntry struct{ ent.Schema }

func (ExtractedEntry) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "extracted_entries"},
	}
}

func (ExtractedEntry) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("income_entry_id", uuid.UUID{}),
		field.UUID("document_id", uuid.UUID{}).Optional().Nillable(),
		field.Int("position").NonNegative().Default(0),
		field.JSON("extracted_data", json.RawMessage{}),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (ExtractedEntry) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("income_entry", IncomeEntry.Type).
			Ref("extracted_entries").
			Field("income_entry_id").
			Required().
			Unique(),
		edge.From("document", Document.Type).
			Ref("extracted_entries").
			Field("document_id").
			Unique(),
	}
}

func (ExtractedEntry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("income_entry_id", "position"),
	}
}
