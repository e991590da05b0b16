// Package export writes rendered journal documents and raw entry data to
// disk.
//
// Three formats are supported:
//
//   - Markdown: the rendered document text, written as-is
//   - HTML: the rendered Markdown converted with goldmark and wrapped in a
//     minimal page
//   - JSON: the entry list itself, machine-readable, full schema
//
// All writes go through write-to-temp-then-rename so a crashed export never
// leaves a half-written document, and so watch mode readers only ever see
// complete files.
package export
