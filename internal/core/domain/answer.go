package domain

// Answer is the outcome of one question: the generated text and the
// documents supplied to the model as context, in prompt order.
type Answer struct {
	Question  string
	Text      string
	Citations []Document
}

// PrimarySource returns the first cited document, if any.
func (a *Answer) PrimarySource() (Document, bool) {
	if a == nil || len(a.Citations) == 0 {
		return nil, false
	}
	return a.Citations[0], true
}
