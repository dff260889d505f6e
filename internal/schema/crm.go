package schema

// TenantColumn carries the tenant isolation predicate. Every allow-listed
// table has it and every generated query filters on it.
const TenantColumn = "tenant_id"

// columnAliases maps interpreter shorthand onto canonical logical columns
// before the per-table lookup.
var columnAliases = map[string]string{
	"count":  "id",
	"profit": "revenue",
	"margin": "revenue",
	"amount": "value",
	"date":   "created_at",
	"time":   "created_at",
}

// datePriority orders the columns eligible to carry a timeframe constraint.
// The first one the table exposes wins.
var datePriority = []string{
	"created_at",
	"updated_at",
	"start_date",
	"end_date",
	"actual_completion",
}

// orderPriority orders the candidates for the ORDER BY column.
var orderPriority = []string{
	"created_at",
	"updated_at",
	"name",
	"id",
}

// defaultProjection is the fallback SELECT list, filtered to the columns
// each table actually exposes.
var defaultProjection = []string{
	"id",
	"name",
	"status",
	"created_at",
}

// subjectVocabulary lists the business nouns probed, in order, when
// classifying what a question is about. Table synonyms are included so the
// subject and the target table agree.
var subjectVocabulary = []string{
	"revenue", "sales", "profit", "pipeline",
	"leads", "lead", "customers", "customer", "clients", "client", "contacts", "contact",
	"projects", "project", "jobs", "job", "deals", "deal",
	"invoices", "invoice", "bills", "bill", "payments", "payment",
	"activities", "activity", "tasks", "task", "appointments", "appointment", "calls", "call",
}

// subjectTables maps vocabulary words that are not table synonyms onto the
// table that answers questions about them.
var subjectTables = map[string]string{
	"revenue":  "projects",
	"profit":   "projects",
	"pipeline": "projects",
	"sales":    "invoices",
}

// SubjectVocabulary returns the ordered business-noun probe list.
func SubjectVocabulary() []string {
	out := make([]string, len(subjectVocabulary))
	copy(out, subjectVocabulary)
	return out
}

// SubjectTable maps a vocabulary word to its table, falling back to the
// registry's synonym index.
func (r *Registry) SubjectTable(word string) (string, bool) {
	if t, ok := subjectTables[word]; ok && r.Has(t) {
		return t, true
	}
	return r.TableForSubject(word)
}

// Default returns the curated CRM registry. Column sets mirror the tenant
// database migrations; the interpreter and generator never introspect them
// at runtime.
func Default() *Registry {
	return defaultRegistry
}

var defaultRegistry = MustNew(
	Table{
		Name: "contacts",
		Columns: []Column{
			{Name: "id"},
			{Name: "tenant_id"},
			{Name: "name", Physical: "full_name"},
			{Name: "email"},
			{Name: "phone"},
			{Name: "status"},
			{Name: "source"},
			{Name: "type"},
			{Name: "city"},
			{Name: "state"},
			{Name: "created_at"},
			{Name: "updated_at"},
		},
		Synonyms: []string{"lead", "leads", "customer", "customers", "client", "clients", "person", "people"},
	},
	Table{
		Name: "projects",
		Columns: []Column{
			{Name: "id"},
			{Name: "tenant_id"},
			{Name: "name"},
			{Name: "status"},
			{Name: "type"},
			{Name: "value"},
			{Name: "revenue"},
			{Name: "city"},
			{Name: "state"},
			{Name: "start_date"},
			{Name: "end_date"},
			{Name: "actual_completion"},
			{Name: "created_at"},
			{Name: "updated_at"},
		},
		Synonyms: []string{"project", "job", "jobs", "deal", "deals"},
	},
	Table{
		Name: "activities",
		Columns: []Column{
			{Name: "id"},
			{Name: "tenant_id"},
			{Name: "name", Physical: "subject"},
			{Name: "type"},
			{Name: "status"},
			{Name: "outcome"},
			{Name: "created_at"},
			{Name: "updated_at"},
		},
		Synonyms: []string{"activity", "task", "tasks", "appointment", "appointments", "call", "calls"},
	},
	Table{
		Name: "invoices",
		Columns: []Column{
			{Name: "id"},
			{Name: "tenant_id"},
			{Name: "status"},
			{Name: "value", Physical: "amount"},
			{Name: "created_at"},
			{Name: "updated_at"},
		},
		Synonyms: []string{"invoice", "bill", "bills", "payment", "payments"},
	},
)
