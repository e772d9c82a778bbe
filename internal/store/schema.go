package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString},
		{Name: "value", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeString},
	}
	// KVTable holds small string settings such as the bearer token.
	KVTable = &schema.Table{
		Name:       "kv",
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	attemptColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "quiz_id", Type: field.TypeInt64},
		{Name: "quiz_title", Type: field.TypeString},
		{Name: "passer_id", Type: field.TypeInt64, Nullable: true},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "correct", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt},
		{Name: "percentage", Type: field.TypeInt},
		{Name: "band", Type: field.TypeString},
		{Name: "message", Type: field.TypeString, Default: ""},
		// Fixed-width text, see timeLayout.
		{Name: "created_at", Type: field.TypeString},
	}
	// AttemptsTable is the local quiz attempt history.
	AttemptsTable = &schema.Table{
		Name:       "quiz_attempts",
		Columns:    attemptColumns,
		PrimaryKey: []*schema.Column{attemptColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "quiz_attempts_quiz_id",
				Columns: []*schema.Column{attemptColumns[2], attemptColumns[1]},
			},
		},
	}

	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	// SequenceTable holds the single row backing sequenceCounter.
	SequenceTable = &schema.Table{
		Name:       "attempt_sequence",
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	// Tables lists every table Open migrates.
	Tables = []*schema.Table{KVTable, AttemptsTable, SequenceTable}
)

// attemptFields lists the quiz_attempts columns in scan order.
func attemptFields() []string {
	names := make([]string, len(attemptColumns))
	for i, c := range attemptColumns {
		names[i] = c.Name
	}
	return names
}
