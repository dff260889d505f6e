package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers.
// Question and SQL text are never logged verbatim.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogTranslation records a question passing through the full pipeline.
func (a *AuditLogger) LogTranslation(
	tenantID, question, sql string,
	riskLevel string,
	confidence float64,
	usedFallback bool,
	durationMs int64,
) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "translation_audit").
		Str("tenant_hash", hashStr(tenantID)[:16]).
		Str("question_hash", hashStr(question)[:16]).
		Str("risk_level", riskLevel).
		Float64("confidence", confidence).
		Bool("used_fallback", usedFallback).
		Int64("duration_ms", durationMs)

	if sql != "" {
		evt = evt.Str("sql_hash", hashStr(sql)[:16])
	}
	evt.Msg("audit")
}

// LogRejection records a question stopped before SQL left the pipeline.
func (a *AuditLogger) LogRejection(tenantID, question, reason string) {
	if !a.enabled {
		return
	}
	log.Warn().
		Str("event", "rejection_audit").
		Str("tenant_hash", hashStr(tenantID)[:16]).
		Str("question_hash", hashStr(question)[:16]).
		Str("reason", reason).
		Msg("audit")
}

// LogExecution records a generated query being run against the store.
func (a *AuditLogger) LogExecution(
	tenantID, sql string,
	rowCount int,
	durationMs int64,
	success bool,
	errMsg string,
) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "execution_audit").
		Str("tenant_hash", hashStr(tenantID)[:16]).
		Str("sql_hash", hashStr(sql)[:16]).
		Int("row_count", rowCount).
		Int64("duration_ms", durationMs).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
