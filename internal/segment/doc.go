// Package segment extracts narrative paragraphs from recognized OCR lines.
//
// Game screenshots carry a lot of interface chrome around the story text:
// menu labels, button captions, page headers. The Engine walks the lines of
// one batch in reading order and uses configured start and stop markers to
// decide which lines belong to a paragraph.
//
// # State Machine
//
// The engine starts Idle. While Idle, a line containing any start marker as a
// substring switches to Recording; the marker line itself is not kept. While
// Recording, a line whose trimmed text equals a stop marker closes the current
// paragraph and switches back to Idle. Every other line seen while Recording
// is appended to the current paragraph with no separator, because the source
// lines are visual wraps of a single sentence.
//
// A start marker seen while Recording is treated as content. A stop marker
// seen while Idle is ignored.
//
// # Output
//
// Paragraphs are deduplicated by exact text, joined with a newline and
// trimmed. A paragraph still open when the lines run out is flushed as if a
// stop marker had been seen.
package segment
