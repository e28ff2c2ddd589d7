package employee

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// personalColumns whitelists the columns reachable through a proposed
// personal_info patch. Map keys arrive from stored JSON, so nothing outside
// this set may ever be interpolated into SQL.
var personalColumns = map[string]bool{
	"first_name":     true,
	"last_name":      true,
	"name_bn":        true,
	"nid_number":     true,
	"phone":          true,
	"gender":         true,
	"dob":            true,
	"religion":       true,
	"blood_group":    true,
	"marital_status": true,
	"place_of_birth": true,
	"height":         true,
	"passport":       true,
	"birth_reg":      true,
	"cadre_type":     true,
	"batch_no":       true,
}

var fileColumns = map[string]bool{
	"profile_picture":        true,
	"nid_file_path":          true,
	"birth_certificate_path": true,
}

var addressColumns = map[string]bool{
	"division":     true,
	"district":     true,
	"upazila":      true,
	"post_office":  true,
	"house_no":     true,
	"village_road": true,
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, name_bn, nid_number, phone, gender, dob,
           religion, blood_group, marital_status, place_of_birth, height,
           passport, birth_reg, cadre_type, batch_no,
           profile_picture, nid_file_path, birth_certificate_path,
           created_at, updated_at
    FROM employees
    WHERE id = $1
  `, employeeID)

	var emp Employee
	if err := row.Scan(
		&emp.ID, &emp.FirstName, &emp.LastName, &emp.NameBn, &emp.NIDNumber,
		&emp.Phone, &emp.Gender, &emp.DOB, &emp.Religion, &emp.BloodGroup,
		&emp.MaritalStatus, &emp.PlaceOfBirth, &emp.Height, &emp.Passport,
		&emp.BirthReg, &emp.CadreType, &emp.BatchNo,
		&emp.ProfilePicture, &emp.NIDFilePath, &emp.BirthCertificatePath,
		&emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := s.loadRelations(ctx, &emp); err != nil {
		return nil, err
	}
	if err := s.loadAddresses(ctx, &emp); err != nil {
		return nil, err
	}
	if err := s.loadAcademics(ctx, &emp); err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) loadRelations(ctx context.Context, emp *Employee) error {
	rows, err := s.DB.Query(ctx, `
    SELECT id, relation, name, name_bn, nid, dob, occupation, is_alive,
           is_active_marriage, gender, birth_certificate_path, COALESCE(client_key, ''), position
    FROM employee_relations
    WHERE employee_id = $1
    ORDER BY position, created_at
  `, emp.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rel Relation
		if err := rows.Scan(&rel.ID, &rel.Relation, &rel.Name, &rel.NameBn, &rel.NID,
			&rel.DOB, &rel.Occupation, &rel.IsAlive, &rel.IsActiveMarriage,
			&rel.Gender, &rel.BirthCertificatePath, &rel.ClientKey, &rel.Position); err != nil {
			return err
		}
		emp.Relations = append(emp.Relations, rel)
	}
	return rows.Err()
}

func (s *Store) loadAddresses(ctx context.Context, emp *Employee) error {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, division, district, upazila, post_office, house_no, village_road
    FROM employee_addresses
    WHERE employee_id = $1
  `, emp.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var addr Address
		if err := rows.Scan(&addr.ID, &addr.Type, &addr.Division, &addr.District,
			&addr.Upazila, &addr.PostOffice, &addr.HouseNo, &addr.VillageRoad); err != nil {
			return err
		}
		emp.Addresses = append(emp.Addresses, addr)
	}
	return rows.Err()
}

func (s *Store) loadAcademics(ctx context.Context, emp *Employee) error {
	rows, err := s.DB.Query(ctx, `
    SELECT id, exam_name, institute, passing_year, result, board,
           certificate_path, COALESCE(client_key, ''), position
    FROM employee_academics
    WHERE employee_id = $1
    ORDER BY position, created_at
  `, emp.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var record AcademicRecord
		if err := rows.Scan(&record.ID, &record.ExamName, &record.Institute,
			&record.PassingYear, &record.Result, &record.Board,
			&record.CertificatePath, &record.ClientKey, &record.Position); err != nil {
			return err
		}
		emp.Academics = append(emp.Academics, record)
	}
	return rows.Err()
}

func (s *Store) UpdatePersonalInfo(ctx context.Context, tx pgx.Tx, employeeID string, fields map[string]string) error {
	sets := make([]string, 0, len(fields))
	args := []any{employeeID}
	for key, value := range fields {
		if !personalColumns[key] {
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", key, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE employees SET %s, updated_at = now() WHERE id = $1", strings.Join(sets, ", "))
	_, err := tx.Exec(ctx, query, args...)
	return err
}

func (s *Store) SetEmployeeFile(ctx context.Context, tx pgx.Tx, employeeID, field, path string) error {
	if !fileColumns[field] {
		return fmt.Errorf("unknown document field %q", field)
	}
	query := fmt.Sprintf("UPDATE employees SET %s = $2, updated_at = now() WHERE id = $1", field)
	_, err := tx.Exec(ctx, query, employeeID, path)
	return err
}

// UpsertParent patches the single father or mother row field by field,
// creating the row when the record had none.
func (s *Store) UpsertParent(ctx context.Context, tx pgx.Tx, employeeID, relation string, fields map[string]any) error {
	if relation != RelationFather && relation != RelationMother {
		return fmt.Errorf("relation %q is not a parent", relation)
	}

	var id string
	err := tx.QueryRow(ctx, `
    SELECT id FROM employee_relations
    WHERE employee_id = $1 AND relation = $2
    ORDER BY created_at
    LIMIT 1
  `, employeeID, relation).Scan(&id)
	if err == pgx.ErrNoRows {
		_, err = tx.Exec(ctx, `
      INSERT INTO employee_relations (employee_id, relation, name, name_bn, nid, dob, occupation, is_alive)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, employeeID, relation,
			stringField(fields, "name"), stringField(fields, "name_bn"),
			stringField(fields, "nid"), stringField(fields, "dob"),
			stringField(fields, "occupation"), boolField(fields, "is_alive"))
		return err
	}
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(fields))
	args := []any{id}
	for key := range fields {
		switch key {
		case "name", "name_bn", "nid", "dob", "occupation":
			args = append(args, stringField(fields, key))
		case "is_alive":
			args = append(args, boolField(fields, key))
		default:
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", key, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE employee_relations SET %s WHERE id = $1", strings.Join(sets, ", "))
	_, err = tx.Exec(ctx, query, args...)
	return err
}

// ReplaceRelationSet swaps the whole spouse or child set for the proposed
// one. Member identity is positional during editing, so partial patching is
// unsafe; the approved array always replaces the stored set wholesale.
// ReplaceRelationSet swaps the full spouse or child list. Rows that still
// carry their persisted id keep that id and their stored certificate path, so
// document uploads addressed to a member survive the replacement.
func (s *Store) ReplaceRelationSet(ctx context.Context, tx pgx.Tx, employeeID, relation string, members []map[string]any) error {
	if relation != RelationSpouse && relation != RelationChild {
		return fmt.Errorf("relation %q is not a replaceable set", relation)
	}

	existing := map[string]string{}
	existingRows, err := tx.Query(ctx,
		"SELECT id, COALESCE(birth_certificate_path, '') FROM employee_relations WHERE employee_id = $1 AND relation = $2",
		employeeID, relation)
	if err != nil {
		return err
	}
	for existingRows.Next() {
		var id, cert string
		if err := existingRows.Scan(&id, &cert); err != nil {
			existingRows.Close()
			return err
		}
		existing[id] = cert
	}
	existingRows.Close()
	if err := existingRows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM employee_relations WHERE employee_id = $1 AND relation = $2",
		employeeID, relation); err != nil {
		return err
	}

	for i, member := range members {
		id := stringField(member, "id")
		if _, ok := existing[id]; !ok {
			id = ""
		}
		cert := stringField(member, "birth_certificate_path")
		if cert == "" && id != "" {
			cert = existing[id]
		}
		_, err := tx.Exec(ctx, `
      INSERT INTO employee_relations
        (id, employee_id, relation, name, name_bn, nid, dob, occupation, is_alive,
         is_active_marriage, gender, birth_certificate_path, client_key, position)
      VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()),
              $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14)
    `, id, employeeID, relation,
			stringField(member, "name"), stringField(member, "name_bn"),
			stringField(member, "nid"), stringField(member, "dob"),
			stringField(member, "occupation"), boolField(member, "is_alive"),
			boolField(member, "is_active_marriage"), stringField(member, "gender"),
			cert, stringField(member, "client_key"), i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateAddress(ctx context.Context, tx pgx.Tx, employeeID, addrType string, fields map[string]string) error {
	if addrType != AddressPresent && addrType != AddressPermanent {
		return fmt.Errorf("unknown address type %q", addrType)
	}

	var id string
	err := tx.QueryRow(ctx,
		"SELECT id FROM employee_addresses WHERE employee_id = $1 AND type = $2 LIMIT 1",
		employeeID, addrType).Scan(&id)
	if err == pgx.ErrNoRows {
		if err := tx.QueryRow(ctx, `
      INSERT INTO employee_addresses (employee_id, type)
      VALUES ($1, $2)
      RETURNING id
    `, employeeID, addrType).Scan(&id); err != nil {
			return err
		}
		err = nil
	}
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(fields))
	args := []any{id}
	for key, value := range fields {
		if !addressColumns[key] {
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", key, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE employee_addresses SET %s WHERE id = $1", strings.Join(sets, ", "))
	_, err = tx.Exec(ctx, query, args...)
	return err
}

// ReplaceAcademics swaps the full academic list, preserving stored
// certificate paths for rows that still carry their persisted id.
func (s *Store) ReplaceAcademics(ctx context.Context, tx pgx.Tx, employeeID string, rows []map[string]string) error {
	existing := map[string]string{}
	existingRows, err := tx.Query(ctx,
		"SELECT id, certificate_path FROM employee_academics WHERE employee_id = $1", employeeID)
	if err != nil {
		return err
	}
	for existingRows.Next() {
		var id, cert string
		if err := existingRows.Scan(&id, &cert); err != nil {
			existingRows.Close()
			return err
		}
		existing[id] = cert
	}
	existingRows.Close()
	if err := existingRows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM employee_academics WHERE employee_id = $1", employeeID); err != nil {
		return err
	}

	for i, row := range rows {
		id := row["id"]
		cert := row["certificate_path"]
		if cert == "" && id != "" {
			cert = existing[id]
		}
		var err error
		if id != "" {
			_, err = tx.Exec(ctx, `
        INSERT INTO employee_academics
          (id, employee_id, exam_name, institute, passing_year, result, board,
           certificate_path, client_key, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
      `, id, employeeID,
				row["exam_name"], row["institute"], row["passing_year"],
				row["result"], row["board"], cert, row["client_key"], i)
		} else {
			_, err = tx.Exec(ctx, `
        INSERT INTO employee_academics
          (employee_id, exam_name, institute, passing_year, result, board,
           certificate_path, client_key, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
      `, employeeID,
				row["exam_name"], row["institute"], row["passing_year"],
				row["result"], row["board"], cert, row["client_key"], i)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SetAcademicCertificate(ctx context.Context, tx pgx.Tx, employeeID, academicID, path string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE employee_academics SET certificate_path = $3
    WHERE employee_id = $1 AND id = $2
  `, employeeID, academicID, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("academic record %s not found", academicID)
	}
	return nil
}

func (s *Store) SetAcademicCertificateByIndex(ctx context.Context, tx pgx.Tx, employeeID string, index int, path string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE employee_academics SET certificate_path = $3
    WHERE employee_id = $1 AND position = $2
  `, employeeID, index, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("academic record at position %d not found", index)
	}
	return nil
}

func (s *Store) SetRelationCertificate(ctx context.Context, tx pgx.Tx, employeeID, relationID, path string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE employee_relations SET birth_certificate_path = $3
    WHERE employee_id = $1 AND id = $2
  `, employeeID, relationID, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("family member %s not found", relationID)
	}
	return nil
}

func stringField(fields map[string]any, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func boolField(fields map[string]any, key string) *bool {
	value, ok := fields[key]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case bool:
		return &v
	case string:
		if v == "true" {
			t := true
			return &t
		}
		if v == "false" {
			f := false
			return &f
		}
	}
	return nil
}
