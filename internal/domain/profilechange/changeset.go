package profilechange

import (
	"encoding/json"

	"brems/internal/domain/employee"
)

// BuildChanges walks an edit form (already in canonical snapshot shape)
// against the current snapshot and emits only the sub-objects that actually
// changed. It never mutates its inputs, and running it twice over unchanged
// inputs yields an identical result.
func BuildChanges(current, form employee.Snapshot) ProposedChanges {
	var changes ProposedChanges

	if personal := changedScalarFields(PersonalFields, current.PersonalInfo, form.PersonalInfo); len(personal) > 0 {
		changes.PersonalInfo = personal
	}

	family := buildFamilyChanges(current.Family, form.Family)
	if family != nil {
		changes.Family = family
	}

	addresses := map[string]map[string]string{}
	for _, addrType := range []string{employee.AddressPresent, employee.AddressPermanent} {
		changed := changedScalarFields(AddressFields, current.Addresses[addrType], form.Addresses[addrType])
		if len(changed) > 0 {
			addresses[addrType] = changed
		}
	}
	if len(addresses) > 0 {
		changes.Addresses = addresses
	}

	if academicsChanged(current.Academics, form.Academics) {
		changes.Academics = copyStringMaps(form.Academics)
	}

	return changes
}

// changedScalarFields applies the differ's emit policy per field: include the
// proposed value only when it is non-empty and differs from the current one.
func changedScalarFields(fields []FieldDef, current, form map[string]string) map[string]string {
	changed := map[string]string{}
	for _, def := range fields {
		propCmp := compareValue(def, form[def.Key])
		if propCmp == "" {
			continue
		}
		if propCmp == compareValue(def, current[def.Key]) {
			continue
		}
		changed[def.Key] = form[def.Key]
	}
	if len(changed) == 0 {
		return nil
	}
	return changed
}

func buildFamilyChanges(current, form employee.Family) *FamilyChanges {
	family := &FamilyChanges{}
	populated := false

	if father := changedPersonFields(personFields, current.Father, form.Father); len(father) > 0 {
		family.Father = father
		populated = true
	}
	if mother := changedPersonFields(personFields, current.Mother, form.Mother); len(mother) > 0 {
		family.Mother = mother
		populated = true
	}

	// Spouse and child identity is positional and fluid while editing, so any
	// difference in count or content replaces the whole proposed array.
	if !equalPersonArrays(current.Spouses, form.Spouses) {
		family.Spouses = copyAnyMaps(form.Spouses)
		if family.Spouses == nil {
			family.Spouses = []map[string]any{}
		}
		populated = true
	}
	if !equalPersonArrays(current.Children, form.Children) {
		family.Children = copyAnyMaps(form.Children)
		if family.Children == nil {
			family.Children = []map[string]any{}
		}
		populated = true
	}

	if !populated {
		return nil
	}
	return family
}

func changedPersonFields(fields []FieldDef, current, form map[string]any) map[string]any {
	changed := map[string]any{}
	for _, def := range fields {
		propCmp := compareValue(def, form[def.Key])
		if propCmp == "" {
			continue
		}
		if propCmp == compareValue(def, current[def.Key]) {
			continue
		}
		if def.DefaultTrue && compareValue(def, current[def.Key]) == "" && propCmp == "true" {
			continue
		}
		changed[def.Key] = form[def.Key]
	}
	if len(changed) == 0 {
		return nil
	}
	return changed
}

func equalPersonArrays(current, form []map[string]any) bool {
	if len(current) == 0 && len(form) == 0 {
		return true
	}
	if len(current) != len(form) {
		return false
	}
	currentJSON, err := json.Marshal(current)
	if err != nil {
		return false
	}
	formJSON, err := json.Marshal(form)
	if err != nil {
		return false
	}
	return string(currentJSON) == string(formJSON)
}

func academicsChanged(current, form []map[string]string) bool {
	if len(current) != len(form) {
		return true
	}
	for i := range form {
		for _, def := range AcademicFields {
			if compareValue(def, current[i][def.Key]) != compareValue(def, form[i][def.Key]) {
				return true
			}
		}
	}
	return false
}

// SelectAddressLevel sets one level of the administrative hierarchy on an
// address map, clearing the dependent lower levels: a district is only
// meaningful under its division, an upazila only under its district.
func SelectAddressLevel(addr map[string]string, key, value string) {
	switch key {
	case "division":
		if addr["division"] != value {
			addr["district"] = ""
			addr["upazila"] = ""
		}
	case "district":
		if addr["district"] != value {
			addr["upazila"] = ""
		}
	}
	addr[key] = value
}

func copyStringMaps(in []map[string]string) []map[string]string {
	if in == nil {
		return []map[string]string{}
	}
	out := make([]map[string]string, len(in))
	for i, item := range in {
		clone := make(map[string]string, len(item))
		for key, value := range item {
			clone[key] = value
		}
		out[i] = clone
	}
	return out
}

func copyAnyMaps(in []map[string]any) []map[string]any {
	if in == nil {
		return nil
	}
	out := make([]map[string]any, len(in))
	for i, item := range in {
		clone := make(map[string]any, len(item))
		for key, value := range item {
			clone[key] = value
		}
		out[i] = clone
	}
	return out
}
