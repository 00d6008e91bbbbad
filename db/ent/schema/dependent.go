package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/google/uuid"
)

type Dependent struct{ ent.Schema }

func (Dependent) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "dependents"},
	}
}

func (Dependent) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("tax_return_id", uuid.UUID{}),
		field.String("first_name").NotEmpty(),
		field.String("last_name").NotEmpty(),
		field.String("ssn").Default("").Sensitive(),
		field.String("relationship").Default(""),
		field.Bool("qualifies_for_ctc").Default(false),
		field.Bool("qualifies_for_eitc").Default(false),
	}
}

func (Dependent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("tax_return", TaxReturn.Type).
			Ref("dependents").
			Field("tax_return_id").
			Required().
			Unique(),
	}
}
