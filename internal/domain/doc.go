// Package domain contains the core entities of the study scheduler:
// flashcards with their spaced repetition state, the items that own them,
// quiz questions and the append-only session log. It has no knowledge of
// storage or transport.
package domain
