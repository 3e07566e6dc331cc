// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// BatchFailure records one image that exhausted its attempts. The error
// text is preserved verbatim so the operator can decide whether re-uploading
// is worth a try.
type BatchFailure struct {
	SourceFile string `json:"source_file"`
	ErrorKind  string `json:"error_kind"`
	Error      string `json:"error"`
	Attempts   int    `json:"attempts"`
}

// BatchProgress is one progress tick pushed to websocket listeners while a
// batch runs. Completed counts both successes and failures and only ever
// increases within a batch.
type BatchProgress struct {
	BatchID   string `json:"batch_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Done      bool   `json:"done"`
}

// BatchSummary is the response body for one completed batch.
type BatchSummary struct {
	BatchID   string                `json:"batch_id"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Results   []TranscriptionResult `json:"results"`
	Failures  []BatchFailure        `json:"failures"`
}
