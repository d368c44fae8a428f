// Package diag defines the diagnostic model shared by the frontend, the
// project compiler and the language server.
//
// # Data model
//
// Diagnostic is the central record: Severity, a compact numeric Code with a
// stable string form, a short Message, the owning Module and its Path
// relative to the project root, the Primary byte span and optional Notes.
// Spans stay in byte offsets; mapping them to lines and columns is the job of
// the consumer, which holds the module's source.LineIndex.
//
// # Emitting diagnostics
//
// Checking phases report through a Reporter (BagReporter collects into a Bag
// per module). Warnings that outlive a single module travel through an
// Emitter; Sink is the process-local Emitter the compiler and the language
// server share. A Sink never deduplicates or filters: deciding which warnings
// are worth showing belongs to whoever drains it.
//
// # Rendering
//
// FormatShort renders one stable line per diagnostic (CLI and tests), Pretty
// renders the source line with a caret underline.
package diag
