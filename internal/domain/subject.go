package domain

// ─── Subject Catalog ────────────────────────────────────────────────────────
// Fixed reference data. Order is display order.

// Subject is one school discipline grades are recorded against.
type Subject struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
}

var subjects = [...]Subject{
	{ID: "it-o", DisplayName: "Italiano Orale"},
	{ID: "it-s", DisplayName: "Italiano Scritto"},
	{ID: "lat-o", DisplayName: "Latino Orale"},
	{ID: "lat-s", DisplayName: "Latino Scritto"},
	{ID: "gre-o", DisplayName: "Greco Orale"},
	{ID: "gre-s", DisplayName: "Greco Scritto"},
	{ID: "mat", DisplayName: "Matematica"},
	{ID: "ing", DisplayName: "Inglese"},
	{ID: "geo", DisplayName: "Geostoria"},
	{ID: "civ", DisplayName: "Ed. Civica"},
	{ID: "fis", DisplayName: "Ed. Fisica"},
	{ID: "sci", DisplayName: "Scienze Naturali"},
}

// Subjects returns the catalog in display order. The slice is a copy.
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects[:])
	return out
}

// FindSubject looks a subject up by id.
func FindSubject(id string) (Subject, error) {
	for _, s := range subjects {
		if s.ID == id {
			return s, nil
		}
	}
	return Subject{}, ErrSubjectNotFound
}
