package workflow

import (
	"fmt"
	"strings"
)

// Category groups required documents for tabbed views.
type Category string

const (
	CategoryAdmission Category = "admission"
	CategoryAcademic  Category = "academic"
	CategoryFinancial Category = "financial"
	CategoryPersonal  Category = "personal"
	CategoryMedical   Category = "medical"
	CategoryLegal     Category = "legal"
)

// AllCategories returns the categories in display order.
func AllCategories() []Category {
	return []Category{
		CategoryAdmission,
		CategoryAcademic,
		CategoryFinancial,
		CategoryPersonal,
		CategoryMedical,
		CategoryLegal,
	}
}

// ParseCategory validates a category name.
func ParseCategory(v string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range AllCategories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown document category %q", v)
}

// Copies is the number of physical copies the student must bring along.
type Copies struct {
	Colored     int `json:"colored" yaml:"colored"`
	Photocopies int `json:"photocopies" yaml:"photocopies"`
}

// RequiredDocument describes one entry of the admission checklist.
type RequiredDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Copies      Copies   `json:"copies"`
}

// Catalog is the immutable list of documents every student must submit.
type Catalog struct {
	docs  []RequiredDocument
	index map[string]int
}

// NewCatalog builds a catalog, rejecting duplicate IDs and unknown categories.
func NewCatalog(docs []RequiredDocument) (Catalog, error) {
	c := Catalog{
		docs:  make([]RequiredDocument, len(docs)),
		index: make(map[string]int, len(docs)),
	}
	for i, d := range docs {
		if d.ID == "" {
			return Catalog{}, fmt.Errorf("catalog entry %d has an empty id", i)
		}
		if _, err := ParseCategory(string(d.Category)); err != nil {
			return Catalog{}, fmt.Errorf("catalog entry %q: %w", d.ID, err)
		}
		if _, dup := c.index[d.ID]; dup {
			return Catalog{}, fmt.Errorf("duplicate catalog entry %q", d.ID)
		}
		c.docs[i] = d
		c.index[d.ID] = i
	}
	return c, nil
}

// Len returns the number of required documents.
func (c Catalog) Len() int { return len(c.docs) }

// Documents returns a copy of the catalog entries in catalog order.
func (c Catalog) Documents() []RequiredDocument {
	out := make([]RequiredDocument, len(c.docs))
	copy(out, c.docs)
	return out
}

// Lookup finds a document type by id.
func (c Catalog) Lookup(id string) (RequiredDocument, bool) {
	i, ok := c.index[id]
	if !ok {
		return RequiredDocument{}, false
	}
	return c.docs[i], true
}

// Has reports whether id names a catalog entry.
func (c Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Categories returns the categories that have at least one entry, in display order.
func (c Catalog) Categories() []Category {
	seen := make(map[Category]bool, len(c.docs))
	for _, d := range c.docs {
		seen[d.Category] = true
	}
	out := make([]Category, 0, len(seen))
	for _, cat := range AllCategories() {
		if seen[cat] {
			out = append(out, cat)
		}
	}
	return out
}

// ByCategory returns the entries of one category in catalog order.
func (c Catalog) ByCategory(cat Category) []RequiredDocument {
	var out []RequiredDocument
	for _, d := range c.docs {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// defaultDocuments is the fixed admission checklist.
var defaultDocuments = []RequiredDocument{
	{ID: "jamb-admission", Name: "JAMB Admission Letter", Description: "For institution use only", Category: CategoryAdmission, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "oaustech-admission", Name: "OAUSTECH School Admission Letter", Description: "Official admission letter from OAUSTECH", Category: CategoryAdmission, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "jamb-supeb-result", Name: "JAMB Result/SUPEB Result(DE)", Description: "JAMB UTME or SUPEB Direct Entry results", Category: CategoryAcademic, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "olevel-result", Name: "O'Level Result WAEC/NECO", Description: "West African Examination Council or National Examination Council results", Category: CategoryAcademic, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "clearance-form", Name: "Clearance Form", Description: "Duly completed by HOD and Dean", Category: CategoryAcademic, Copies: Copies{Colored: 1, Photocopies: 0}},
	{ID: "application-form", Name: "Candidate Application Form", Description: "Completed application form", Category: CategoryAdmission, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "acceptance-clearance", Name: "Acceptance Clearance", Description: "Acceptance of admission offer", Category: CategoryAdmission, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "payment-receipts", Name: "Payment Receipts", Description: "PUTME, Access/Checkers, Acceptance Fee, Medical Fee, School Fee", Category: CategoryFinancial, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "attestation-letter", Name: "Attestation Letter", Description: "Character attestation letter", Category: CategoryPersonal, Copies: Copies{Colored: 1, Photocopies: 0}},
	{ID: "birth-certificate", Name: "Certificate of Birth", Description: "Official birth certificate", Category: CategoryPersonal, Copies: Copies{Colored: 1, Photocopies: 0}},
	{ID: "origin-certificate", Name: "Certificate of Origin", Description: "Local government certificate of origin", Category: CategoryPersonal, Copies: Copies{Colored: 1, Photocopies: 0}},
	{ID: "medical-form", Name: "Medical Form", Description: "Duly filled at the school health center", Category: CategoryMedical, Copies: Copies{Colored: 1, Photocopies: 4}},
	{ID: "medical-certificate", Name: "Medical Certificate of Fitness", Description: "Certificate confirming medical fitness", Category: CategoryMedical, Copies: Copies{Colored: 1, Photocopies: 0}},
	{ID: "cultism-declaration", Name: "Declaration Against Cultism", Description: "Signed declaration against cultism", Category: CategoryLegal, Copies: Copies{Colored: 1, Photocopies: 0}},
	{ID: "course-form", Name: "Course Form", Description: "Selected course registration form", Category: CategoryAcademic, Copies: Copies{Colored: 1, Photocopies: 0}},
}

// RequiredDocumentCount is the size of the default catalog.
const RequiredDocumentCount = 15

// DefaultCatalog returns the fixed fifteen-entry admission catalog.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(defaultDocuments)
	if err != nil {
		panic(err) // static data
	}
	return c
}
