package schema

import (
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

var money = map[string]string{dialect.Postgres: "numeric(14,2)"}

type TaxReturn struct{ ent.Schema }

func (TaxReturn) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "tax_returns"},
	}
}

func (TaxReturn) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("user_id", uuid.UUID{}),
		field.Int("tax_year").Positive(),
		field.String("filing_status").
			Default(string(constants.Single)).
			Validate(utils.EnumValidator(constants.FilingStatuses...)),
		field.String("first_name").Default(""),
		field.String("last_name").Default(""),
		field.String("spouse_first_name").Default(""),
		field.String("spouse_last_name").Default(""),
		field.String("address").Default(""),
		field.String("city").Default(""),
		field.String("state").Default(""),
		field.String("zip_code").Default(""),
		// stored totals; the summary builder recomputes most of them
		field.Float("total_income").Default(0).SchemaType(money),
		field.Float("adjusted_gross_income").Default(0).SchemaType(money),
		field.Float("standard_deduction").Default(0).SchemaType(money),
		field.Float("itemized_deduction").Default(0).SchemaType(money),
		field.Float("taxable_income").Default(0).SchemaType(money),
		field.Float("tax_liability").Default(0).SchemaType(money),
		field.Float("total_credits").Default(0).SchemaType(money),
		field.Float("refund_amount").Default(0).SchemaType(money),
		field.Float("amount_owed").Default(0).SchemaType(money),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (TaxReturn) Edges() []ent.Edge {
	return []ent.Edge{
		// MANY returns -> ONE user
		edge.From("user", User.Type).
			Ref("tax_returns").
			Field("user_id").
			Required().
			Unique(),
		edge.To("documents", Document.Type),
		edge.To("income_entries", IncomeEntry.Type),
		edge.To("dependents", Dependent.Type),
	}
}

func (TaxReturn) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "tax_year"),
	}
}
