package domain

import "strings"

// DocumentRequirement is one entry of the requirement catalog.
type DocumentRequirement struct {
	Key         string   `json:"key" yaml:"key"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
}

// Catalog is the ordered set of documents every candidate must supply.
type Catalog []DocumentRequirement

// Lookup returns the requirement with the given key.
func (c Catalog) Lookup(key string) (DocumentRequirement, bool) {
	for _, req := range c {
		if req.Key == key {
			return req, true
		}
	}
	return DocumentRequirement{}, false
}

func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for _, req := range c {
		keys = append(keys, req.Key)
	}
	return keys
}

// DocumentStatusRecord holds the reviewer-controlled flags of one requirement.
type DocumentStatusRecord struct {
	Uploaded        bool `json:"uploaded" firestore:"uploaded"`
	Verified        bool `json:"verified" firestore:"verified"`
	SpecialApproval bool `json:"specialApproval" firestore:"specialApproval"`
}

// StatusMap is keyed by requirement key. Absent keys read as all-false.
type StatusMap map[string]DocumentStatusRecord

// NewStatusMap seeds an all-false record for every catalog key.
func NewStatusMap(catalog Catalog) StatusMap {
	out := make(StatusMap, len(catalog))
	for _, req := range catalog {
		out[req.Key] = DocumentStatusRecord{}
	}
	return out
}

// Clone returns a copy that can be mutated without touching the receiver.
func (m StatusMap) Clone() StatusMap {
	out := make(StatusMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type DocumentField string

const (
	FieldUploaded        DocumentField = "uploaded"
	FieldVerified        DocumentField = "verified"
	FieldSpecialApproval DocumentField = "specialApproval"
)

func ParseDocumentField(raw string) (DocumentField, bool) {
	switch DocumentField(strings.TrimSpace(raw)) {
	case FieldUploaded:
		return FieldUploaded, true
	case FieldVerified:
		return FieldVerified, true
	case FieldSpecialApproval:
		return FieldSpecialApproval, true
	default:
		return "", false
	}
}

// With returns a copy of the record with field set to value.
func (r DocumentStatusRecord) With(field DocumentField, value bool) DocumentStatusRecord {
	switch field {
	case FieldUploaded:
		r.Uploaded = value
	case FieldVerified:
		r.Verified = value
	case FieldSpecialApproval:
		r.SpecialApproval = value
	}
	return r
}

// RemoteFile is a file observed in a candidate's storage folder.
type RemoteFile struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	ViewLink string `json:"viewLink"`
}
