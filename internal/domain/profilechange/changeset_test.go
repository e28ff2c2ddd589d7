package profilechange

import (
	"reflect"
	"testing"

	"brems/internal/domain/employee"
)

func baseSnapshot() employee.Snapshot {
	return employee.Snapshot{
		PersonalInfo: map[string]string{
			"first_name": "Rahim",
			"phone":      "01711111111",
			"dob":        "1990-05-01T00:00:00.000Z",
		},
		Family: employee.Family{
			Father: map[string]any{"name": "Abdul", "is_alive": ""},
			Mother: map[string]any{},
			Spouses: []map[string]any{
				{"name": "Salma"},
			},
		},
		Addresses: map[string]map[string]string{
			employee.AddressPresent:   {"division": "Dhaka", "district": "Dhaka"},
			employee.AddressPermanent: {},
		},
		Academics: []map[string]string{
			{"exam_name": "SSC", "institute": "Dhaka High", "passing_year": "2005", "result": "GPA 5.00", "board": "Dhaka"},
		},
	}
}

func TestBuildChangesEmptyWhenFormEqualsCurrent(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()

	changes := BuildChanges(current, form)
	if changes.HasFieldChanges() || changes.HasDocuments() {
		t.Fatalf("identical form must yield no changes, got %+v", changes)
	}
}

func TestBuildChangesPersonalFieldOnly(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.PersonalInfo["phone"] = "01722222222"

	changes := BuildChanges(current, form)
	want := map[string]string{"phone": "01722222222"}
	if !reflect.DeepEqual(changes.PersonalInfo, want) {
		t.Fatalf("got %+v, want %+v", changes.PersonalInfo, want)
	}
	if changes.Family != nil || changes.Addresses != nil || changes.Academics != nil {
		t.Fatalf("untouched sections must stay unset, got %+v", changes)
	}
}

func TestBuildChangesSuppressesCleared(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.PersonalInfo["phone"] = ""

	changes := BuildChanges(current, form)
	if changes.HasFieldChanges() {
		t.Fatalf("clearing a field must not be proposable, got %+v", changes)
	}
}

func TestBuildChangesDateRepresentationsEqual(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.PersonalInfo["dob"] = "1990-05-01"

	if changes := BuildChanges(current, form); changes.HasFieldChanges() {
		t.Fatalf("same day must not register as a change, got %+v", changes)
	}
}

func TestBuildChangesFatherAliveDefaultTrue(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.Family.Father = map[string]any{"name": "Abdul", "is_alive": true}

	if changes := BuildChanges(current, form); changes.Family != nil {
		t.Fatalf("explicit true over unrecorded must be suppressed, got %+v", changes.Family)
	}

	form.Family.Father = map[string]any{"name": "Abdul", "is_alive": false}
	changes := BuildChanges(current, form)
	if changes.Family == nil || changes.Family.Father["is_alive"] != false {
		t.Fatalf("alive=false must be proposed, got %+v", changes.Family)
	}
}

func TestBuildChangesSpouseArrayReplacedWhole(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.Family.Spouses = []map[string]any{
		{"name": "Salma"},
		{"name": "Rina"},
	}

	changes := BuildChanges(current, form)
	if changes.Family == nil || len(changes.Family.Spouses) != 2 {
		t.Fatalf("spouse change must replace the whole array, got %+v", changes.Family)
	}
	if changes.Family.Children != nil {
		t.Fatalf("untouched children must stay nil, got %+v", changes.Family.Children)
	}
}

func TestBuildChangesRemovingAllSpousesYieldsEmptyArray(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.Family.Spouses = nil

	changes := BuildChanges(current, form)
	if changes.Family == nil || changes.Family.Spouses == nil {
		t.Fatal("replace-with-none must produce a non-nil empty array")
	}
	if len(changes.Family.Spouses) != 0 {
		t.Fatalf("expected empty array, got %+v", changes.Family.Spouses)
	}
	if !changes.HasFieldChanges() {
		t.Fatal("an empty replacement array is still a field change")
	}
}

func TestBuildChangesAcademicsReplacedWhole(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.Academics = append(form.Academics, map[string]string{
		"exam_name": "HSC", "institute": "Dhaka College", "passing_year": "2007", "result": "GPA 4.80", "board": "Dhaka",
	})

	changes := BuildChanges(current, form)
	if len(changes.Academics) != 2 {
		t.Fatalf("academics must be the full proposed list, got %+v", changes.Academics)
	}

	// Removing every record is still a proposal.
	form.Academics = nil
	changes = BuildChanges(current, form)
	if changes.Academics == nil || len(changes.Academics) != 0 {
		t.Fatalf("expected non-nil empty academics, got %#v", changes.Academics)
	}
}

func TestBuildChangesAddressesPerField(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.Addresses[employee.AddressPresent] = map[string]string{"division": "Dhaka", "district": "Gazipur"}
	form.Addresses[employee.AddressPermanent] = map[string]string{"division": "Khulna"}

	changes := BuildChanges(current, form)
	if changes.Addresses == nil {
		t.Fatal("expected address changes")
	}
	present := changes.Addresses[employee.AddressPresent]
	if len(present) != 1 || present["district"] != "Gazipur" {
		t.Fatalf("only the changed field must be included, got %+v", present)
	}
	permanent := changes.Addresses[employee.AddressPermanent]
	if len(permanent) != 1 || permanent["division"] != "Khulna" {
		t.Fatalf("got %+v", permanent)
	}
}

func TestBuildChangesDoesNotMutateInputs(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.PersonalInfo["phone"] = "01722222222"
	form.Academics[0]["result"] = "GPA 4.50"

	changes := BuildChanges(current, form)
	changes.Academics[0]["result"] = "tampered"
	changes.PersonalInfo["phone"] = "tampered"

	if form.Academics[0]["result"] != "GPA 4.50" || form.PersonalInfo["phone"] != "01722222222" {
		t.Fatal("BuildChanges must copy, not alias, the form data")
	}
	if current.PersonalInfo["phone"] != "01711111111" {
		t.Fatal("BuildChanges must not touch the current snapshot")
	}
}

func TestBuildChangesIdempotent(t *testing.T) {
	current := baseSnapshot()
	form := baseSnapshot()
	form.PersonalInfo["phone"] = "01722222222"
	form.Family.Spouses = nil

	first := BuildChanges(current, form)
	second := BuildChanges(current, form)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs over the same inputs differ:\n%+v\n%+v", first, second)
	}
}

func TestSelectAddressLevelCascade(t *testing.T) {
	addr := map[string]string{"division": "Dhaka", "district": "Gazipur", "upazila": "Sreepur"}

	SelectAddressLevel(addr, "division", "Khulna")
	if addr["division"] != "Khulna" || addr["district"] != "" || addr["upazila"] != "" {
		t.Fatalf("division change must clear lower levels, got %+v", addr)
	}

	addr = map[string]string{"division": "Dhaka", "district": "Gazipur", "upazila": "Sreepur"}
	SelectAddressLevel(addr, "district", "Narsingdi")
	if addr["division"] != "Dhaka" || addr["upazila"] != "" {
		t.Fatalf("district change must clear only upazila, got %+v", addr)
	}

	// Re-selecting the same value keeps dependents.
	addr = map[string]string{"division": "Dhaka", "district": "Gazipur", "upazila": "Sreepur"}
	SelectAddressLevel(addr, "division", "Dhaka")
	if addr["district"] != "Gazipur" || addr["upazila"] != "Sreepur" {
		t.Fatalf("same value must not cascade, got %+v", addr)
	}
}
