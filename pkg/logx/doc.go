// Package logx configures notifyd's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional escalation sink that forwards high-severity log lines through
//     a notification channel (min-level + rate limiting)
//
// The escalation sink exists so a deployment can route its own operational
// errors to an operator channel without wiring a second alerting system. It
// is deliberately best-effort: lines are dropped rather than ever blocking a
// logging call site.
package logx
