package employee

import "time"

// Employee is the raw record as stored: flat scalar fields plus relational
// sets for family, addresses and academics.
type Employee struct {
	ID                   string    `json:"id"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	NameBn               string    `json:"name_bn"`
	NIDNumber            string    `json:"nid_number"`
	Phone                string    `json:"phone"`
	Gender               string    `json:"gender"`
	DOB                  string    `json:"dob"`
	Religion             string    `json:"religion"`
	BloodGroup           string    `json:"blood_group"`
	MaritalStatus        string    `json:"marital_status"`
	PlaceOfBirth         string    `json:"place_of_birth"`
	Height               string    `json:"height"`
	Passport             string    `json:"passport"`
	BirthReg             string    `json:"birth_reg"`
	CadreType            string    `json:"cadre_type"`
	BatchNo              string    `json:"batch_no"`
	ProfilePicture       string    `json:"profile_picture"`
	NIDFilePath          string    `json:"nid_file_path"`
	BirthCertificatePath string    `json:"birth_certificate_path"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	Relations []Relation       `json:"relations"`
	Addresses []Address        `json:"addresses"`
	Academics []AcademicRecord `json:"academics"`
}

const (
	RelationFather = "father"
	RelationMother = "mother"
	RelationSpouse = "spouse"
	RelationChild  = "child"
)

const (
	AddressPresent   = "present"
	AddressPermanent = "permanent"
)

// Relation is one family member row. IsAlive and IsActiveMarriage are
// tri-state: nil means the value was never recorded.
type Relation struct {
	ID                   string `json:"id"`
	Relation             string `json:"relation"`
	Name                 string `json:"name"`
	NameBn               string `json:"name_bn"`
	NID                  string `json:"nid"`
	DOB                  string `json:"dob"`
	Occupation           string `json:"occupation"`
	IsAlive              *bool  `json:"is_alive"`
	IsActiveMarriage     *bool  `json:"is_active_marriage,omitempty"`
	Gender               string `json:"gender,omitempty"`
	BirthCertificatePath string `json:"birth_certificate_path,omitempty"`
	ClientKey            string `json:"client_key,omitempty"`
	Position             int    `json:"-"`
}

type Address struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Division    string `json:"division"`
	District    string `json:"district"`
	Upazila     string `json:"upazila"`
	PostOffice  string `json:"post_office"`
	HouseNo     string `json:"house_no"`
	VillageRoad string `json:"village_road"`
}

type AcademicRecord struct {
	ID              string `json:"id"`
	ExamName        string `json:"exam_name"`
	Institute       string `json:"institute"`
	PassingYear     string `json:"passing_year"`
	Result          string `json:"result"`
	Board           string `json:"board"`
	CertificatePath string `json:"certificate_path,omitempty"`
	ClientKey       string `json:"client_key,omitempty"`
	Position        int    `json:"-"`
}

// Snapshot is the canonical comparable shape used by the differ and the
// change-set builder. Every scalar defaults to "" so equality checks have a
// single empty representation.
type Snapshot struct {
	PersonalInfo map[string]string            `json:"personal_info"`
	Family       Family                       `json:"family"`
	Addresses    map[string]map[string]string `json:"addresses"`
	Academics    []map[string]string          `json:"academics"`
}

type Family struct {
	Father   map[string]any   `json:"father"`
	Mother   map[string]any   `json:"mother"`
	Spouses  []map[string]any `json:"spouses"`
	Children []map[string]any `json:"children"`
}
