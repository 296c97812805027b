package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const doctorColumns = `id, user_id, full_name, biography, experience_years, consultation_fee,
	photo_url, average_rating, total_patients, balance, created_at, updated_at`

const patientColumns = `id, user_id, full_name, gender, date_of_birth, phone_number, address,
	blood_type, height, weight, allergies, balance, created_at, updated_at`

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.FullName, &d.Biography, &d.ExperienceYears,
		&d.ConsultationFee, &d.PhotoURL, &d.AverageRating, &d.TotalPatients, &d.Balance,
		&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan doctor: %w", err)
	}
	return &d, nil
}

func collectDoctors(rows pgx.Rows) ([]*Doctor, error) {
	defer rows.Close()
	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, user_id, full_name, biography, experience_years,
			consultation_fee, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.UserID, d.FullName, d.Biography, d.ExperienceYears, d.ConsultationFee, d.PhotoURL)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+doctorColumns+` FROM doctors WHERE user_id = $1`, userID)
	return scanDoctor(row)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET full_name = $2, biography = $3, experience_years = $4,
			consultation_fee = $5, photo_url = $6, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.FullName, d.Biography, d.ExperienceYears, d.ConsultationFee, d.PhotoURL)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	c := r.conn(ctx)
	var total int
	if err := c.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}
	rows, err := c.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors ORDER BY full_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	doctors, err := collectDoctors(rows)
	if err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

func (r *doctorRepoPG) TopRated(ctx context.Context, limit int) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors ORDER BY average_rating DESC, total_patients DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list top rated doctors: %w", err)
	}
	return collectDoctors(rows)
}

func (r *doctorRepoPG) ConsultationFee(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var fee decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `SELECT consultation_fee FROM doctors WHERE id = $1`, id).Scan(&fee)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrDoctorNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get consultation fee: %w", err)
	}
	return fee, nil
}

func (r *doctorRepoPG) IncrementTotalPatients(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET total_patients = total_patients + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment total patients: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepoPG) UpdateAverageRating(ctx context.Context, id uuid.UUID, average decimal.Decimal) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET average_rating = $2, updated_at = NOW() WHERE id = $1`, id, average)
	if err != nil {
		return fmt.Errorf("update average rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepoPG) CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET balance = balance + $2, updated_at = NOW() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("credit doctor balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepoPG) ReplaceSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM doctor_specialties WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("clear doctor specialties: %w", err)
	}
	for _, sid := range specialtyIDs {
		_, err := c.Exec(ctx, `
			INSERT INTO doctor_specialties (doctor_id, specialty_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, doctorID, sid)
		if err != nil {
			return fmt.Errorf("link specialty: %w", err)
		}
	}
	return nil
}

func (r *doctorRepoPG) ListSpecialties(ctx context.Context, doctorID uuid.UUID) ([]*Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT s.id, s.name
		FROM specialties s
		JOIN doctor_specialties ds ON ds.specialty_id = s.id
		WHERE ds.doctor_id = $1
		ORDER BY s.name`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor specialties: %w", err)
	}
	defer rows.Close()

	var specialties []*Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan specialty: %w", err)
		}
		specialties = append(specialties, &s)
	}
	return specialties, rows.Err()
}

func (r *doctorRepoPG) CascadeDelete(ctx context.Context, id uuid.UUID) error {
	c := r.conn(ctx)
	steps := []string{
		`DELETE FROM payments WHERE appointment_id IN (SELECT id FROM appointments WHERE doctor_id = $1)`,
		`DELETE FROM appointments WHERE doctor_id = $1`,
		`DELETE FROM reviews WHERE doctor_id = $1`,
		`DELETE FROM doctor_schedules WHERE doctor_id = $1`,
		`DELETE FROM patient_favorites WHERE doctor_id = $1`,
		`DELETE FROM doctor_specialties WHERE doctor_id = $1`,
	}
	for _, q := range steps {
		if _, err := c.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("cascade delete doctor: %w", err)
		}
	}
	tag, err := c.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepoPG) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	return total, nil
}

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Gender, &p.DateOfBirth, &p.PhoneNumber,
		&p.Address, &p.BloodType, &p.Height, &p.Weight, &p.Allergies, &p.Balance,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, user_id, full_name, gender, date_of_birth, phone_number,
			address, blood_type, height, weight, allergies, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.UserID, p.FullName, p.Gender, p.DateOfBirth, p.PhoneNumber,
		p.Address, p.BloodType, p.Height, p.Weight, p.Allergies, p.Balance)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientColumns+` FROM patients WHERE user_id = $1`, userID)
	return scanPatient(row)
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET full_name = $2, gender = $3, date_of_birth = $4, phone_number = $5,
			address = $6, blood_type = $7, height = $8, weight = $9, allergies = $10,
			updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.Gender, p.DateOfBirth, p.PhoneNumber,
		p.Address, p.BloodType, p.Height, p.Weight, p.Allergies)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	c := r.conn(ctx)
	var total int
	if err := c.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}
	rows, err := c.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients ORDER BY full_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *patientRepoPG) Balance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `SELECT balance FROM patients WHERE id = $1`, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrPatientNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get patient balance: %w", err)
	}
	return balance, nil
}

func (r *patientRepoPG) DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET balance = balance - $2, updated_at = NOW() WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("debit patient balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *patientRepoPG) AddFavorite(ctx context.Context, patientID, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_favorites (patient_id, doctor_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, patientID, doctorID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *patientRepoPG) RemoveFavorite(ctx context.Context, patientID, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM patient_favorites WHERE patient_id = $1 AND doctor_id = $2`, patientID, doctorID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (r *patientRepoPG) IsFavorite(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM patient_favorites WHERE patient_id = $1 AND doctor_id = $2)`,
		patientID, doctorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

func (r *patientRepoPG) ListFavorites(ctx context.Context, patientID uuid.UUID) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		JOIN patient_favorites pf ON pf.doctor_id = d.id
		WHERE pf.patient_id = $1
		ORDER BY d.full_name`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return collectDoctors(rows)
}

func (r *patientRepoPG) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return total, nil
}

type specialtyRepoPG struct {
	pool *pgxpool.Pool
}

func NewSpecialtyRepoPG(pool *pgxpool.Pool) SpecialtyRepository {
	return &specialtyRepoPG{pool: pool}
}

func (r *specialtyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO specialties (id, name) VALUES ($1, $2)`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("insert specialty: %w", err)
	}
	return nil
}

func (r *specialtyRepoPG) List(ctx context.Context) ([]*Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM specialties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()

	var specialties []*Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan specialty: %w", err)
		}
		specialties = append(specialties, &s)
	}
	return specialties, rows.Err()
}

func (r *specialtyRepoPG) Update(ctx context.Context, s *Specialty) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE specialties SET name = $2 WHERE id = $1`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("update specialty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpecialtyNotFound
	}
	return nil
}

func (r *specialtyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM doctor_specialties WHERE specialty_id = $1`, id); err != nil {
		return fmt.Errorf("unlink specialty: %w", err)
	}
	tag, err := c.Exec(ctx, `DELETE FROM specialties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete specialty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpecialtyNotFound
	}
	return nil
}
