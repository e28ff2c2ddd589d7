package profilechange

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

type fieldKind int

const (
	kindPlain fieldKind = iota
	kindDate
	kindBool
	kindEnum
)

// FieldDef describes one comparable field: its canonical key, the label shown
// on review rows, and how values are compared and displayed. DefaultTrue
// marks booleans whose implicit default is true, so a first-time explicit
// true is never reported as a discovered change.
type FieldDef struct {
	Key         string
	Label       string
	Kind        fieldKind
	EnumLabels  map[string]string
	DefaultTrue bool
}

var cadreLabels = map[string]string{
	"cadre":     "Cadre",
	"non_cadre": "Non-cadre",
}

var PersonalFields = []FieldDef{
	{Key: "first_name", Label: "First name"},
	{Key: "last_name", Label: "Last name"},
	{Key: "name_bn", Label: "Name (Bangla)"},
	{Key: "nid_number", Label: "NID number"},
	{Key: "phone", Label: "Phone"},
	{Key: "gender", Label: "Gender"},
	{Key: "dob", Label: "Date of birth", Kind: kindDate},
	{Key: "religion", Label: "Religion"},
	{Key: "blood_group", Label: "Blood group"},
	{Key: "marital_status", Label: "Marital status"},
	{Key: "place_of_birth", Label: "Place of birth"},
	{Key: "height", Label: "Height"},
	{Key: "passport", Label: "Passport number"},
	{Key: "birth_reg", Label: "Birth registration number"},
	{Key: "cadre_type", Label: "Cadre type", Kind: kindEnum, EnumLabels: cadreLabels},
	{Key: "batch_no", Label: "Batch number"},
}

var personFields = []FieldDef{
	{Key: "name", Label: "Name"},
	{Key: "name_bn", Label: "Name (Bangla)"},
	{Key: "nid", Label: "NID"},
	{Key: "dob", Label: "Date of birth", Kind: kindDate},
	{Key: "occupation", Label: "Occupation"},
	{Key: "is_alive", Label: "Alive", Kind: kindBool, DefaultTrue: true},
}

var spouseFields = append(append([]FieldDef{}, personFields...),
	FieldDef{Key: "is_active_marriage", Label: "Active marriage", Kind: kindBool})

var childFields = append(append([]FieldDef{}, personFields...),
	FieldDef{Key: "gender", Label: "Gender"})

var AddressFields = []FieldDef{
	{Key: "division", Label: "Division"},
	{Key: "district", Label: "District"},
	{Key: "upazila", Label: "Upazila"},
	{Key: "post_office", Label: "Post office"},
	{Key: "house_no", Label: "House number"},
	{Key: "village_road", Label: "Village / road"},
}

var AcademicFields = []FieldDef{
	{Key: "exam_name", Label: "Exam"},
	{Key: "institute", Label: "Institute"},
	{Key: "passing_year", Label: "Passing year"},
	{Key: "result", Label: "Result"},
	{Key: "board", Label: "Board"},
}

// normValue folds null, missing and "" into one empty representation and
// renders bools and JSON numbers as stable strings.
func normValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// compareValue is the equality-side view of a value. Dates compare on the
// YYYY-MM-DD prefix only, so datetime and date-only representations of the
// same day never spuriously differ.
func compareValue(def FieldDef, value any) string {
	normalized := normValue(value)
	if def.Kind == kindDate && len(normalized) > 10 {
		return normalized[:10]
	}
	return normalized
}

// displayValue is the label-transformed view. Enum transforms apply here
// only, never to the equality check.
func displayValue(def FieldDef, value any) string {
	normalized := compareValue(def, value)
	if def.Kind == kindEnum && def.EnumLabels != nil {
		if label, ok := def.EnumLabels[normalized]; ok {
			return label
		}
	}
	return normalized
}

var rasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

func IsImagePath(filePath string) bool {
	return rasterExtensions[strings.ToLower(path.Ext(filePath))]
}

// FileName returns the last path segment, the human name shown for a file.
func FileName(filePath string) string {
	if filePath == "" {
		return ""
	}
	return path.Base(filePath)
}
