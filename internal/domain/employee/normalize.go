package employee

// Normalize converts a raw record into the canonical comparable Snapshot.
// Academic ids and certificate paths are deliberately left out: they are not
// user-editable through the change-request flow, and certificate targeting
// keeps using the full record instead.
func Normalize(emp *Employee) Snapshot {
	snap := Snapshot{
		PersonalInfo: map[string]string{
			"first_name":     emp.FirstName,
			"last_name":      emp.LastName,
			"name_bn":        emp.NameBn,
			"nid_number":     emp.NIDNumber,
			"phone":          emp.Phone,
			"gender":         emp.Gender,
			"dob":            emp.DOB,
			"religion":       emp.Religion,
			"blood_group":    emp.BloodGroup,
			"marital_status": emp.MaritalStatus,
			"place_of_birth": emp.PlaceOfBirth,
			"height":         emp.Height,
			"passport":       emp.Passport,
			"birth_reg":      emp.BirthReg,
			"cadre_type":     emp.CadreType,
			"batch_no":       emp.BatchNo,
		},
		Family: Family{
			Father: map[string]any{},
			Mother: map[string]any{},
		},
		Addresses: map[string]map[string]string{
			AddressPresent:   emptyAddress(),
			AddressPermanent: emptyAddress(),
		},
	}

	for _, rel := range emp.Relations {
		switch rel.Relation {
		case RelationFather:
			snap.Family.Father = personMap(rel)
		case RelationMother:
			snap.Family.Mother = personMap(rel)
		case RelationSpouse:
			person := personMap(rel)
			person["is_active_marriage"] = boolOrEmpty(rel.IsActiveMarriage)
			snap.Family.Spouses = append(snap.Family.Spouses, person)
		case RelationChild:
			person := personMap(rel)
			person["gender"] = rel.Gender
			snap.Family.Children = append(snap.Family.Children, person)
		}
	}

	for _, addr := range emp.Addresses {
		if addr.Type != AddressPresent && addr.Type != AddressPermanent {
			continue
		}
		snap.Addresses[addr.Type] = map[string]string{
			"division":     addr.Division,
			"district":     addr.District,
			"upazila":      addr.Upazila,
			"post_office":  addr.PostOffice,
			"house_no":     addr.HouseNo,
			"village_road": addr.VillageRoad,
		}
	}

	for _, record := range emp.Academics {
		snap.Academics = append(snap.Academics, map[string]string{
			"exam_name":    record.ExamName,
			"institute":    record.Institute,
			"passing_year": record.PassingYear,
			"result":       record.Result,
			"board":        record.Board,
		})
	}

	return snap
}

// CurrentData builds the richer map stored on a change request as
// current_data: the comparable snapshot plus ids and stored file paths, which
// the review screen needs to resolve previous values for document diffs.
func CurrentData(emp *Employee) map[string]any {
	snap := Normalize(emp)

	personal := map[string]any{}
	for key, value := range snap.PersonalInfo {
		personal[key] = value
	}
	personal["profile_picture"] = emp.ProfilePicture
	personal["nid_file_path"] = emp.NIDFilePath
	personal["birth_certificate_path"] = emp.BirthCertificatePath

	children := make([]any, 0, len(snap.Family.Children))
	childIdx := 0
	for _, rel := range emp.Relations {
		if rel.Relation != RelationChild {
			continue
		}
		if childIdx >= len(snap.Family.Children) {
			break
		}
		person := snap.Family.Children[childIdx]
		person["id"] = rel.ID
		person["birth_certificate_path"] = rel.BirthCertificatePath
		children = append(children, person)
		childIdx++
	}

	spouses := make([]any, 0, len(snap.Family.Spouses))
	for _, person := range snap.Family.Spouses {
		spouses = append(spouses, person)
	}

	academics := make([]any, 0, len(emp.Academics))
	for i, record := range emp.Academics {
		if i >= len(snap.Academics) {
			break
		}
		row := map[string]any{}
		for key, value := range snap.Academics[i] {
			row[key] = value
		}
		row["id"] = record.ID
		row["certificate_path"] = record.CertificatePath
		academics = append(academics, row)
	}

	addresses := map[string]any{}
	for addrType, fields := range snap.Addresses {
		addr := map[string]any{}
		for key, value := range fields {
			addr[key] = value
		}
		addresses[addrType] = addr
	}

	return map[string]any{
		"personal_info": personal,
		"family": map[string]any{
			"father":   snap.Family.Father,
			"mother":   snap.Family.Mother,
			"spouses":  spouses,
			"children": children,
		},
		"addresses": addresses,
		"academics": academics,
	}
}

func personMap(rel Relation) map[string]any {
	return map[string]any{
		"name":       rel.Name,
		"name_bn":    rel.NameBn,
		"nid":        rel.NID,
		"dob":        rel.DOB,
		"occupation": rel.Occupation,
		"is_alive":   boolOrEmpty(rel.IsAlive),
	}
}

func boolOrEmpty(value *bool) any {
	if value == nil {
		return ""
	}
	return *value
}

func emptyAddress() map[string]string {
	return map[string]string{
		"division":     "",
		"district":     "",
		"upazila":      "",
		"post_office":  "",
		"house_no":     "",
		"village_road": "",
	}
}
