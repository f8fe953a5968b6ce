package domain

import "strings"

// DerivedStatus is the display status of one requirement. It is never stored.
type DerivedStatus string

const (
	DocumentMissing   DerivedStatus = "Missing"
	DocumentUploaded  DerivedStatus = "Uploaded"
	DocumentVerified  DerivedStatus = "Verified"
	DocumentException DerivedStatus = "Exception"
)

// BadgeClass returns the tag class the dashboard renders for the status.
func (s DerivedStatus) BadgeClass() string {
	switch s {
	case DocumentVerified:
		return "tag-success"
	case DocumentException:
		return "tag-warning"
	case DocumentUploaded:
		return "tag-info"
	default:
		return "tag-error"
	}
}

// Satisfied reports whether the requirement no longer needs reviewer action.
func (s DerivedStatus) Satisfied() bool {
	return s == DocumentVerified || s == DocumentException
}

type ResolvedDocument struct {
	Key         string               `json:"key"`
	DisplayName string               `json:"name"`
	Label       DerivedStatus        `json:"status"`
	MatchedFile *RemoteFile          `json:"matchedFile"`
	Record      DocumentStatusRecord `json:"record"`
}

// Resolution is catalog-ordered: one entry per catalog key.
type Resolution []ResolvedDocument

func (r Resolution) ByKey() map[string]ResolvedDocument {
	out := make(map[string]ResolvedDocument, len(r))
	for _, doc := range r {
		out[doc.Key] = doc
	}
	return out
}

// Counts tallies the resolution by label.
func (r Resolution) Counts() map[DerivedStatus]int {
	out := make(map[DerivedStatus]int, 4)
	for _, doc := range r {
		out[doc.Label]++
	}
	return out
}

// Resolve derives the status of every catalog requirement from the stored
// flags and the files currently in the candidate's folder. It never mutates
// its inputs.
func Resolve(catalog Catalog, statuses StatusMap, files []RemoteFile) Resolution {
	out := make(Resolution, 0, len(catalog))
	for _, req := range catalog {
		record := statuses[req.Key]
		file, matched := MatchFile(req, files)

		doc := ResolvedDocument{
			Key:         req.Key,
			DisplayName: req.DisplayName,
			Record:      record,
		}

		switch {
		case record.Verified:
			doc.Label = DocumentVerified
		case record.SpecialApproval:
			doc.Label = DocumentException
		case matched:
			doc.Label = DocumentUploaded
			doc.MatchedFile = &file
		case record.Uploaded:
			doc.Label = DocumentUploaded
		default:
			doc.Label = DocumentMissing
		}
		out = append(out, doc)
	}
	return out
}

// MatchFile returns the first file whose lowercased name contains any of the
// requirement keywords. Substring matching is intentionally loose: "pancard"
// and "company_plan" both satisfy "pan".
func MatchFile(req DocumentRequirement, files []RemoteFile) (RemoteFile, bool) {
	for _, file := range files {
		name := strings.ToLower(file.Name)
		for _, keyword := range req.Keywords {
			if strings.Contains(name, strings.ToLower(keyword)) {
				return file, true
			}
		}
	}
	return RemoteFile{}, false
}

// MatchedKeys reports, per catalog key, whether any file matches.
func MatchedKeys(catalog Catalog, files []RemoteFile) map[string]bool {
	out := make(map[string]bool, len(catalog))
	for _, req := range catalog {
		_, ok := MatchFile(req, files)
		out[req.Key] = ok
	}
	return out
}
