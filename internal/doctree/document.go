package doctree

// FieldValue is one filled-in field of a document.
type FieldValue struct {
	FieldID    string `json:"fieldId"`
	FieldValue string `json:"fieldValue"`
}

// Document is a filled template instance: the template key plus the field
// values in field registry order.
type Document struct {
	TemplateID     string       `json:"templateId"`
	DocumentFields []FieldValue `json:"documentFields"`
}

// Values returns the document's field values keyed by field id. The first
// entry wins when an id repeats.
func (d Document) Values() map[string]string {
	out := make(map[string]string, len(d.DocumentFields))
	for _, fv := range d.DocumentFields {
		if _, ok := out[fv.FieldID]; !ok {
			out[fv.FieldID] = fv.FieldValue
		}
	}
	return out
}
