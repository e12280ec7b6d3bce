package entities

import "time"

// Availability is a snapshot of which optional resources exist for a user
// session. Callers build a fresh value for every routing request.
//
// DocumentIndexReady must never be true while DocumentUploaded is false;
// the caller keeps that invariant.
type Availability struct {
	DocumentUploaded   bool
	DocumentIndexReady bool
	DatasetUploaded    bool
	Dataset            *Dataset
}

// DocumentReady reports whether the document capability may be selected.
func (a Availability) DocumentReady() bool {
	return a.DocumentUploaded && a.DocumentIndexReady
}

// DatasetReady reports whether the table capability may be selected.
func (a Availability) DatasetReady() bool {
	return a.DatasetUploaded && a.Dataset != nil
}

// Dataset is an in-memory tabular dataset. Routing only looks at whether a
// handle is present; the table collaborator reads the contents.
type Dataset struct {
	Name     string
	Columns  []string
	Rows     [][]string
	LoadedAt time.Time
}

// NumRows returns the number of data rows (header excluded).
func (d *Dataset) NumRows() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}
