// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package transcribe

// DefaultInstruction is the fixed transcription prompt. It pins the exact
// reply shape the parser expects; deployments can override it through the
// config file, but the JSON contract must stay intact.
const DefaultInstruction = `You are transcribing a photographed preschool assessment form.

The page is a table. Read it carefully and reply with JSON only, using
exactly this shape:

{
  "category": "<the learning area this page belongs to, from the table header context>",
  "headers": ["<column 1>", "<column 2>", "<column 3>", "<column 4>"],
  "children": [
    {"name": "<child name>", "scores": ["A", "R", "D", "N"], "note": "<teacher note>"}
  ]
}

Rules:
- "headers" must contain exactly the 4 assessment indicator column titles,
  in left-to-right order.
- Each data row of the table is one child. For each score column, the form
  shows the printed numerals 1 2 3 4 and the teacher has circled one of
  them. Report the circled numeral as a letter: 1 -> "A", 2 -> "R",
  3 -> "D", 4 -> "N". If no numeral is circled, use "".
- "note" is all handwritten text inside that child's note cell, merged into
  one string. Never split a note into separate rows because of line breaks
  inside the cell.
- Do not invent rows. Do not add commentary outside the JSON.`
