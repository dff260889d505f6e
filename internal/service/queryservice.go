package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crmlens/crmlens/internal/interpreter"
	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/observability"
	"github.com/crmlens/crmlens/internal/schema"
	"github.com/crmlens/crmlens/internal/security"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

// ErrSensitiveData rejects questions that ask for secrets or PII.
var ErrSensitiveData = errors.New("question asks for sensitive data")

// errSQLGate means the generator produced SQL the final validator refused.
// That is a bug upstream, never caller input, so the message stays generic.
var errSQLGate = errors.New("internal error")

// ValidationError carries the question validator's message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TranslateResult bundles everything one question produced.
type TranslateResult struct {
	Interpretation *interpreter.Interpretation
	Query          *sqlgen.SQLQuery
	UsedFallback   bool
}

// QueryService runs the full translation pipeline: question guard,
// pattern interpretation, conditional LLM fallback, generation, final SQL
// gate, audit.
type QueryService struct {
	interp      *interpreter.Interpreter
	gen         *sqlgen.Generator
	fallback    llm.Service
	questionVal *security.QuestionValidator
	piiDetector *security.PIIDetector
	sqlVal      *security.SQLValidator
	audit       *security.AuditLogger
	cache       *fallbackCache
}

// NewQueryService wires the pipeline. A nil fallback disables the LLM
// path; a nil piiDetector disables the PII guard.
func NewQueryService(
	registry *schema.Registry,
	fallback llm.Service,
	questionVal *security.QuestionValidator,
	piiDetector *security.PIIDetector,
	sqlVal *security.SQLValidator,
	audit *security.AuditLogger,
	fallbackCacheTTL time.Duration,
) *QueryService {
	if fallback == nil {
		fallback = llm.Disabled{}
	}
	return &QueryService{
		interp:      interpreter.New(registry),
		gen:         sqlgen.New(registry, nil),
		fallback:    fallback,
		questionVal: questionVal,
		piiDetector: piiDetector,
		sqlVal:      sqlVal,
		audit:       audit,
		cache:       newFallbackCache(fallbackCacheTTL),
	}
}

// Interpret runs the guards and interpretation without generating SQL.
func (s *QueryService) Interpret(ctx context.Context, question string, qctx interpreter.QueryContext) (*interpreter.Interpretation, bool, error) {
	if r := s.questionVal.Validate(question); !r.Valid {
		s.reject(qctx.TenantID, question, "validation")
		return nil, false, &ValidationError{Message: r.Message}
	}
	if s.piiDetector != nil {
		if found, kw := s.piiDetector.Detect(question); found {
			log.Warn().Str("keyword", kw).Msg("question blocked for sensitive data")
			s.reject(qctx.TenantID, question, "sensitive_data")
			return nil, false, ErrSensitiveData
		}
	}

	base := s.interp.Interpret(question)
	final, usedFallback := s.maybeFallback(ctx, qctx.TenantID, question, base)
	return final, usedFallback, nil
}

// Translate runs the full pipeline and returns the query bundle.
func (s *QueryService) Translate(ctx context.Context, question string, qctx interpreter.QueryContext) (*TranslateResult, error) {
	start := time.Now()

	interp, usedFallback, err := s.Interpret(ctx, question, qctx)
	if err != nil {
		return nil, err
	}

	query, err := s.gen.Generate(interp, qctx)
	if err != nil {
		s.reject(qctx.TenantID, question, rejectionReason(err))
		return nil, err
	}

	if msg := s.sqlVal.Validate(query.SQL); msg != "" {
		log.Error().Str("detail", msg).Msg("generated SQL failed the final gate")
		s.reject(qctx.TenantID, question, "sql_gate")
		return nil, errSQLGate
	}

	elapsed := time.Since(start)
	s.audit.LogTranslation(qctx.TenantID, question, query.SQL,
		string(query.RiskLevel), interp.Confidence, usedFallback, elapsed.Milliseconds())
	observability.ObserveTranslation(string(interp.Intent.Type), string(query.RiskLevel), elapsed)

	return &TranslateResult{
		Interpretation: interp,
		Query:          query,
		UsedFallback:   usedFallback,
	}, nil
}

func (s *QueryService) reject(tenantID, question, reason string) {
	s.audit.LogRejection(tenantID, question, reason)
	observability.IncrementRejection(reason)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, sqlgen.ErrRiskTooHigh):
		return "risk_too_high"
	case errors.Is(err, sqlgen.ErrNoAuthorizedTable):
		return "no_authorized_table"
	default:
		return "validation"
	}
}
