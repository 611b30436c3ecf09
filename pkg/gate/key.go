package gate

import "fmt"

// NoteKey identifies a per-clinician/per-note state slot.
type NoteKey string

// DeriveNoteKey resolves the per-request NoteKey: prefer "note:<noteID>"
// when noteID is non-empty, else "note:<clinicianID>" when clinicianID is
// non-empty, else "note:unknown".
func DeriveNoteKey(noteID, clinicianID string) NoteKey {
	if noteID != "" {
		return NoteKey(fmt.Sprintf("note:%s", noteID))
	}
	if clinicianID != "" {
		return NoteKey(fmt.Sprintf("note:%s", clinicianID))
	}
	return "note:unknown"
}
