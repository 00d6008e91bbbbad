package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/db/ent/schema/utils"
)

type IncomeEntry struct{ ent.Schema }

func (IncomeEntry) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "income_entries"},
	}
}

func (IncomeEntry) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("tax_return_id", uuid.UUID{}),
		field.String("income_type").NotEmpty().
			Validate(utils.EnumValidator(constants.IncomeTypes...)),
		field.Float("amount").Default(0).SchemaType(money),
		field.String("description").Default(""),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (IncomeEntry) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("tax_return", TaxReturn.Type).
			Ref("income_entries").
			Field("tax_return_id").
			Required().
			Unique(),
		// ONE entry -> MANY extracted payloads, read in position order
		edge.To("extracted_entries", ExtractedEntry.Type),
	}
}

func (IncomeEntry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tax_return_id"),
	}
}
