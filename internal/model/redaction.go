package model

// PIICategory names a class of personally identifying data
type PIICategory string

const (
	PIIEmail       PIICategory = "email"
	PIIPhone       PIICategory = "phone"
	PIISSN         PIICategory = "ssn"
	PIICreditCard  PIICategory = "credit_card"
	PIIAddressLike PIICategory = "address_like"
	PIIName        PIICategory = "name"
)

// RedactionResult is the output of the privacy redactor
type RedactionResult struct {
	MaskedText    string        `json:"masked_text"`
	DetectedTypes []PIICategory `json:"detected_types"` // Set semantics, in rule order
}

// Has reports whether the category was detected
func (r RedactionResult) Has(category PIICategory) bool {
	for _, c := range r.DetectedTypes {
		if c == category {
			return true
		}
	}
	return false
}

// ClassificationResult carries keyword category counts; matched phrases never leave the classifier
type ClassificationResult struct {
	Categories []string       `json:"categories"`
	Counts     map[string]int `json:"counts"`
}
