package sqlgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crmlens/crmlens/internal/interpreter"
	"github.com/crmlens/crmlens/internal/schema"
)

// maxRows caps every generated query. There is no override path.
const maxRows = 1000

// Operation tags what a generated query does.
type Operation string

const (
	OperationSelect  Operation = "SELECT"
	OperationCount   Operation = "COUNT"
	OperationSum     Operation = "SUM"
	OperationAvg     Operation = "AVG"
	OperationGroupBy Operation = "GROUP BY"
)

// RiskLevel is the safety classification gating generation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// SQLQuery is the complete, immutable result bundle. Parameters is keyed by
// positional placeholder ($1, $2, ...) in binding order.
type SQLQuery struct {
	SQL        string         `json:"sql"`
	Parameters map[string]any `json:"parameters"`
	Tables     []string       `json:"tables"`
	Operations []Operation    `json:"operations"`
	RiskLevel  RiskLevel      `json:"riskLevel"`
}

// Typed rejections. Generation either returns a complete SQLQuery or one of
// these; there is no partial result. ErrRiskTooHigh carries no detail about
// the scoring heuristics.
var (
	ErrRiskTooHigh       = errors.New("query rejected for safety reasons")
	ErrNoAuthorizedTable = errors.New("no authorized table matches the question")
	ErrMissingTenant     = errors.New("tenant id is required")
	ErrRequiredFilter    = errors.New("a required filter cannot be satisfied")
)

// Generator builds parameterized, tenant-isolated SQL from interpretations.
// Stateless per call; safe for concurrent use.
type Generator struct {
	registry *schema.Registry
	now      func() time.Time
}

// New builds a generator over the registry. now is the clock used to
// resolve relative timeframes; nil means time.Now.
func New(registry *schema.Registry, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{registry: registry, now: now}
}

// AssessRisk scores an interpretation. The gate runs before any resolution,
// so a HIGH interpretation never touches table or column lookups. Filters
// beyond three each add a point; a low-confidence interpretation adds two.
func AssessRisk(interp *interpreter.Interpretation) RiskLevel {
	score := 0
	if len(interp.GroupBy) > 2 {
		score++
	}
	if n := len(interp.Filters); n > 3 {
		score += n - 3
	}
	if interp.TimeFrame != nil && interp.TimeFrame.Type == interpreter.TimeCustom {
		score++
	}
	if interp.Confidence < 0.6 {
		score += 2
	}
	if len(interp.Metrics) > 3 {
		score++
	}
	switch {
	case score >= 4:
		return RiskHigh
	case score >= 2:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Generate turns an interpretation into a SQLQuery for the calling tenant,
// or rejects with a typed error. Rejections never carry partial SQL.
func (g *Generator) Generate(interp *interpreter.Interpretation, qctx interpreter.QueryContext) (*SQLQuery, error) {
	if interp == nil {
		return nil, fmt.Errorf("sqlgen: nil interpretation")
	}
	if strings.TrimSpace(qctx.TenantID) == "" {
		return nil, ErrMissingTenant
	}

	risk := AssessRisk(interp)
	if risk == RiskHigh {
		return nil, ErrRiskTooHigh
	}

	tables, err := g.resolveTables(interp, qctx)
	if err != nil {
		return nil, err
	}
	table := tables[0]

	groupCols := g.resolveGroupBy(table, interp.GroupBy)
	items, operations := g.buildSelect(interp, table, groupCols)

	b := newBinder()
	conds := []string{fmt.Sprintf("%s = %s", schema.TenantColumn, b.bind(qctx.TenantID))}
	bound := map[string]bool{schema.TenantColumn: true}

	for _, f := range interp.Filters {
		cond, col, ok := g.buildFilter(table, f, b)
		if !ok {
			continue
		}
		conds = append(conds, cond)
		bound[col] = true
	}

	if interp.TimeFrame != nil {
		if col, ok := g.registry.DateColumn(table); ok {
			if start, end, ok := g.resolveTimeFrame(interp.TimeFrame); ok {
				conds = append(conds, fmt.Sprintf("%s BETWEEN %s AND %s", col, b.bind(start), b.bind(end)))
				bound[col] = true
			}
		}
	}

	if err := g.checkRequired(table, bound); err != nil {
		return nil, err
	}

	clauses := []string{
		"SELECT " + strings.Join(items, ", "),
		"FROM " + table,
		"WHERE " + strings.Join(conds, " AND "),
	}
	if len(groupCols) > 0 {
		clauses = append(clauses, "GROUP BY "+strings.Join(groupCols, ", "))
		operations = append(operations, OperationGroupBy)
	}
	if col, ok := g.orderColumn(table, groupCols, operations); ok {
		clauses = append(clauses, "ORDER BY "+col+" DESC")
	}
	clauses = append(clauses, "LIMIT "+strconv.Itoa(maxRows))

	return &SQLQuery{
		SQL:        strings.Join(clauses, "\n"),
		Parameters: b.params,
		Tables:     tables,
		Operations: operations,
		RiskLevel:  risk,
	}, nil
}

// resolveTables picks the candidate tables (explicit entities, then the
// subject synonym, then the baseline) and intersects them with what the
// caller may query.
func (g *Generator) resolveTables(interp *interpreter.Interpretation, qctx interpreter.QueryContext) ([]string, error) {
	var candidates []string
	for _, e := range interp.Entities {
		if e.Kind != interpreter.KindTable {
			continue
		}
		name := strings.ToLower(e.Name)
		if g.registry.Has(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		if t, ok := g.registry.SubjectTable(interp.Intent.Subject); ok {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		if g.registry.Has(schema.BaselineTable) {
			candidates = append(candidates, schema.BaselineTable)
		} else {
			candidates = append(candidates, g.registry.Names()[0])
		}
	}

	allowed := make(map[string]bool, len(qctx.AvailableTables))
	for _, t := range qctx.AvailableTables {
		allowed[strings.ToLower(t)] = true
	}

	var authorized []string
	seen := make(map[string]bool)
	for _, t := range candidates {
		if seen[t] || !allowed[t] {
			continue
		}
		seen[t] = true
		authorized = append(authorized, t)
	}
	if len(authorized) == 0 {
		return nil, ErrNoAuthorizedTable
	}
	return authorized, nil
}

// resolveGroupBy maps requested dimensions through the allow-list. Names
// that do not resolve are dropped, duplicates collapse, and the tenant
// column is never groupable.
func (g *Generator) resolveGroupBy(table string, dims []string) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, dim := range dims {
		col, ok := g.registry.ResolveColumn(table, dim)
		if !ok || col == schema.TenantColumn || seen[col] {
			continue
		}
		seen[col] = true
		cols = append(cols, col)
	}
	return cols
}

func (g *Generator) buildSelect(interp *interpreter.Interpretation, table string, groupCols []string) ([]string, []Operation) {
	operations := []Operation{OperationSelect}
	var items []string

	switch interp.Intent.Type {
	case interpreter.IntentCount:
		items = append(items, "COUNT(*) as total_count")
		operations = append(operations, OperationCount)
	case interpreter.IntentSum:
		if hasMetric(interp.Metrics, "revenue") {
			if col, ok := g.registry.ResolveColumn(table, "revenue"); ok {
				items = append(items, fmt.Sprintf("SUM(%s) as total_revenue", col))
				operations = append(operations, OperationSum)
			}
		}
	case interpreter.IntentAverage:
		if hasMetric(interp.Metrics, "value") {
			if col, ok := g.registry.ResolveColumn(table, "value"); ok {
				items = append(items, fmt.Sprintf("AVG(%s) as average_value", col))
				operations = append(operations, OperationAvg)
			}
		}
		if len(items) == 0 && hasMetric(interp.Metrics, "revenue") {
			if col, ok := g.registry.ResolveColumn(table, "revenue"); ok {
				items = append(items, fmt.Sprintf("AVG(%s) as average_revenue", col))
				operations = append(operations, OperationAvg)
			}
		}
	}

	for _, col := range groupCols {
		if !containsItem(items, col) {
			items = append(items, col)
		}
	}

	if len(items) == 0 {
		items = g.registry.DefaultProjection(table)
	}
	return items, operations
}

// buildFilter renders one filter condition. The column must resolve
// through the allow-list and the value shape must match the operator;
// anything else is dropped without reaching the SQL text. Values are
// validated before any placeholder is allocated so a dropped filter leaves
// no orphan parameters.
func (g *Generator) buildFilter(table string, f interpreter.Filter, b *binder) (cond, col string, ok bool) {
	col, ok = g.registry.ResolveColumn(table, f.Column)
	if !ok || col == schema.TenantColumn {
		return "", "", false
	}

	switch f.Operator {
	case interpreter.OpEquals, interpreter.OpNotEquals, interpreter.OpGreaterThan, interpreter.OpLessThan:
		v, ok := scalarValue(f.Value)
		if !ok {
			return "", "", false
		}
		return fmt.Sprintf("%s %s %s", col, comparisonSQL[f.Operator], b.bind(v)), col, true

	case interpreter.OpLike:
		s, ok := f.Value.(interpreter.StringValue)
		if !ok {
			return "", "", false
		}
		// The literal never enters the SQL text; wildcards wrap the
		// bound value.
		ph := b.bind("%" + strings.ToLower(string(s)) + "%")
		return fmt.Sprintf("LOWER(%s) LIKE %s", col, ph), col, true

	case interpreter.OpIn:
		values, ok := listValues(f.Value, 1, 0)
		if !ok {
			return "", "", false
		}
		phs := make([]string, len(values))
		for i, v := range values {
			phs[i] = b.bind(v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(phs, ", ")), col, true

	case interpreter.OpBetween:
		values, ok := listValues(f.Value, 2, 2)
		if !ok {
			return "", "", false
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, b.bind(values[0]), b.bind(values[1])), col, true
	}

	return "", "", false
}

// checkRequired fails closed when a column the table marks as mandatory
// never made it into the WHERE clause.
func (g *Generator) checkRequired(table string, bound map[string]bool) error {
	t, ok := g.registry.Lookup(table)
	if !ok {
		return ErrNoAuthorizedTable
	}
	for _, req := range t.Required {
		physical, ok := g.registry.ResolveColumn(table, req)
		if !ok || !bound[physical] {
			return fmt.Errorf("%w: %s", ErrRequiredFilter, req)
		}
	}
	return nil
}

// orderColumn picks the sort column. Grouped queries may only sort by a
// grouped column; a pure aggregate result has nothing to sort.
func (g *Generator) orderColumn(table string, groupCols []string, operations []Operation) (string, bool) {
	aggregate := false
	for _, op := range operations {
		if op == OperationCount || op == OperationSum || op == OperationAvg {
			aggregate = true
			break
		}
	}

	if len(groupCols) > 0 {
		for _, logical := range []string{"created_at", "updated_at", "name", "id"} {
			physical, ok := g.registry.ResolveColumn(table, logical)
			if ok && containsItem(groupCols, physical) {
				return physical, true
			}
		}
		return "", false
	}
	if aggregate {
		return "", false
	}
	return g.registry.OrderColumn(table)
}

var comparisonSQL = map[interpreter.Operator]string{
	interpreter.OpEquals:      "=",
	interpreter.OpNotEquals:   "!=",
	interpreter.OpGreaterThan: ">",
	interpreter.OpLessThan:    "<",
}

// binder allocates positional placeholders in a single left-to-right pass.
type binder struct {
	params map[string]any
	n      int
}

func newBinder() *binder {
	return &binder{params: make(map[string]any)}
}

func (b *binder) bind(v any) string {
	b.n++
	ph := "$" + strconv.Itoa(b.n)
	b.params[ph] = v
	return ph
}

func scalarValue(v interpreter.FilterValue) (any, bool) {
	switch x := v.(type) {
	case interpreter.StringValue:
		return string(x), true
	case interpreter.NumberValue:
		return float64(x), true
	default:
		return nil, false
	}
}

// listValues unpacks a ListValue of scalars. max of zero means unbounded.
func listValues(v interpreter.FilterValue, min, max int) ([]any, bool) {
	list, ok := v.(interpreter.ListValue)
	if !ok || len(list) < min || (max > 0 && len(list) > max) {
		return nil, false
	}
	out := make([]any, len(list))
	for i, el := range list {
		sv, ok := scalarValue(el)
		if !ok {
			return nil, false
		}
		out[i] = sv
	}
	return out, true
}

func hasMetric(metrics []string, want string) bool {
	for _, m := range metrics {
		if m == want {
			return true
		}
	}
	return false
}

func containsItem(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}
