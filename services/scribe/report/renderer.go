// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders the grouped, narrated assessment data into the
// downloadable Word document, one page per child.
package report

import (
	"bytes"
	"fmt"

	docx "github.com/fumiama/go-docx"

	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/jinterlante1206/FormScribe/services/scribe/narrative"
)

// ContentType is the MIME type the download endpoints serve.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const tableWidthTwips = 8400

// Render builds the report document.
//
// # Description
//
// One section per child, in the order of grouped, separated by hard page
// breaks. Each section holds the child's name as a title, a two-column
// indicator/grade table with one shaded sub-heading row per source
// category, and the two labeled narrative paragraphs. A child missing from
// comments gets the narrative writer's default comment. Pure
// transformation: no network access, and identical input produces
// identical bytes.
//
// # Inputs
//
//   - grouped: per-child data in report order.
//   - comments: narrative comments keyed by child name; may be nil.
//
// # Outputs
//
//   - []byte: the .docx file content.
//   - error: document assembly or serialization failure only.
func Render(grouped []datatypes.GroupedChild, comments map[string]datatypes.NarrativeComment) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	for i, child := range grouped {
		comment, ok := comments[child.Name]
		if !ok {
			comment = narrative.DefaultComment()
		}
		renderChild(doc, child, comment)

		if i < len(grouped)-1 {
			doc.AddParagraph().AddPageBreaks()
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serializing report document: %w", err)
	}
	return buf.Bytes(), nil
}

func renderChild(doc *docx.Docx, child datatypes.GroupedChild, comment datatypes.NarrativeComment) {
	title := doc.AddParagraph().Justification("center")
	title.AddText(child.Name).Size("36").Bold()

	subtitle := doc.AddParagraph().Justification("center")
	subtitle.AddText("Development Assessment Report").Size("24").Color("595959")

	doc.AddParagraph() // spacer

	rows := 0
	for _, entry := range child.Entries {
		rows += 1 + len(entry.Indicators)
	}
	if rows > 0 {
		table := doc.AddTable(rows, 2, tableWidthTwips, nil)
		r := 0
		for _, entry := range child.Entries {
			heading := table.TableRows[r].TableCells[0].AddParagraph()
			heading.AddText(entry.Category).Bold()
			table.TableRows[r].TableCells[1].AddParagraph().AddText("")
			r++
			for _, ind := range entry.Indicators {
				table.TableRows[r].TableCells[0].AddParagraph().AddText(ind.Label)
				table.TableRows[r].TableCells[1].AddParagraph().AddText(ind.Score)
				r++
			}
		}
	}

	doc.AddParagraph() // spacer

	obs := doc.AddParagraph()
	obs.AddText("Observation: ").Bold()
	obs.AddText(comment.Observation)

	sug := doc.AddParagraph()
	sug.AddText("Suggestion: ").Bold()
	sug.AddText(comment.Suggestion)
}
