package demande_repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DemandeRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewDemandeRepository(db *pgxpool.Pool, log *slog.Logger) *DemandeRepository {
	return &DemandeRepository{db: db, log: log}
}

// CreateDemande inserts a new demande. Desired dates are stored as a JSON
// array of day keys.
func (r *DemandeRepository) CreateDemande(ctx context.Context, demande domain.Demande) (uuid.UUID, error) {
	const op = "DemandeRepository.CreateDemande"

	dates, err := marshalDates(demande.DesiredDates)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var lat, lon *float64
	if demande.GPS != nil {
		lat = &demande.GPS.Latitude
		lon = &demande.GPS.Longitude
	}

	query := `
		INSERT INTO demandes (
			client_id, category, title, description, city, postal_code,
			latitude, longitude, desired_dates, flexible, flexibility_days,
			urgency, artisan_id, public, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING demande_id
	`

	var id uuid.UUID
	err = r.db.QueryRow(ctx, query,
		demande.ClientID,
		demande.Category.String(),
		demande.Title,
		demande.Description,
		demande.City,
		demande.PostalCode,
		lat,
		lon,
		dates,
		demande.Flexible,
		demande.FlexibilityDays,
		demande.Urgency.String(),
		demande.ArtisanID,
		demande.Public,
		demande.Status.String(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// GetByID loads one demande.
func (r *DemandeRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Demande, error) {
	const op = "DemandeRepository.GetByID"

	query := selectDemande + ` WHERE demande_id = $1`

	row := r.db.QueryRow(ctx, query, id)
	d, err := scanDemande(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Demande{}, fmt.Errorf("%s: %w", op, repository.ErrDemandeNotFound)
		}
		return domain.Demande{}, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

const selectDemande = `
	SELECT
		demande_id, client_id, category, title, description, city, postal_code,
		latitude, longitude, desired_dates, flexible, flexibility_days,
		urgency, artisan_id, public, status, created_at, updated_at
	FROM demandes
`

func scanDemande(row pgx.Row) (domain.Demande, error) {
	var d domain.Demande
	var categoryStr, urgencyStr, statusStr string
	var lat, lon *float64
	var dates []byte

	err := row.Scan(
		&d.ID,
		&d.ClientID,
		&categoryStr,
		&d.Title,
		&d.Description,
		&d.City,
		&d.PostalCode,
		&lat,
		&lon,
		&dates,
		&d.Flexible,
		&d.FlexibilityDays,
		&urgencyStr,
		&d.ArtisanID,
		&d.Public,
		&statusStr,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return domain.Demande{}, err
	}

	d.Category = domain.TradeCategory(categoryStr)
	d.Urgency = domain.Urgency(urgencyStr)
	d.Status = domain.DemandeStatus(statusStr)
	if lat != nil && lon != nil {
		d.GPS = &domain.GPSCoordinates{Latitude: *lat, Longitude: *lon}
	}
	d.DesiredDates, err = unmarshalDates(dates)
	if err != nil {
		return domain.Demande{}, err
	}

	return d, nil
}

// UpdateStatus moves a demande through its lifecycle.
func (r *DemandeRepository) UpdateStatus(ctx context.Context, demandeID uuid.UUID, status domain.DemandeStatus) error {
	const op = "DemandeRepository.UpdateStatus"

	tag, err := r.db.Exec(ctx,
		`UPDATE demandes SET status = $1, updated_at = NOW() WHERE demande_id = $2`,
		status.String(), demandeID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrDemandeNotFound)
	}

	return nil
}

// Publish flips a directed demande into a public one, the fallback when a
// search found nobody.
func (r *DemandeRepository) Publish(ctx context.Context, demandeID uuid.UUID) error {
	const op = "DemandeRepository.Publish"

	tag, err := r.db.Exec(ctx,
		`UPDATE demandes SET public = TRUE, artisan_id = NULL, updated_at = NOW() WHERE demande_id = $1`,
		demandeID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrDemandeNotFound)
	}

	return nil
}

// ListDemandes returns demandes by filter, newest first.
func (r *DemandeRepository) ListDemandes(ctx context.Context, filter domain.DemandeFilter) ([]domain.Demande, error) {
	const op = "DemandeRepository.ListDemandes"

	whereClauses := []string{"1=1"}
	params := []interface{}{}
	paramCount := 1

	if filter.ClientID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("client_id = $%d", paramCount))
		params = append(params, *filter.ClientID)
		paramCount++
	}
	if filter.ArtisanID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("artisan_id = $%d", paramCount))
		params = append(params, *filter.ArtisanID)
		paramCount++
	}
	if filter.Category != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("category = $%d", paramCount))
		params = append(params, (*filter.Category).String())
		paramCount++
	}
	if filter.City != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", paramCount))
		params = append(params, *filter.City)
		paramCount++
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", paramCount))
		params = append(params, (*filter.Status).String())
		paramCount++
	}
	if filter.Public != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("public = $%d", paramCount))
		params = append(params, *filter.Public)
		paramCount++
	}

	query := selectDemande + " WHERE " + strings.Join(whereClauses, " AND ") +
		" ORDER BY created_at DESC, demande_id DESC LIMIT 200"

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var demandes []domain.Demande
	for rows.Next() {
		d, err := scanDemande(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", op, err)
		}
		demandes = append(demandes, d)
	}

	return demandes, rows.Err()
}

// CreateDevis inserts a quote for a demande.
func (r *DemandeRepository) CreateDevis(ctx context.Context, devis domain.Devis) (uuid.UUID, error) {
	const op = "DemandeRepository.CreateDevis"

	query := `
		INSERT INTO devis (
			demande_id, artisan_id, amount_cents, message,
			start_date, end_date, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING devis_id
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		devis.DemandeID,
		devis.ArtisanID,
		devis.AmountCents,
		devis.Message,
		devis.StartDate,
		devis.EndDate,
		devis.Status.String(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// GetDevisByID loads one devis.
func (r *DemandeRepository) GetDevisByID(ctx context.Context, id uuid.UUID) (domain.Devis, error) {
	const op = "DemandeRepository.GetDevisByID"

	query := `
		SELECT devis_id, demande_id, artisan_id, amount_cents, message,
		       start_date, end_date, status, created_at, updated_at
		FROM devis
		WHERE devis_id = $1
	`

	var d domain.Devis
	var statusStr string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.DemandeID,
		&d.ArtisanID,
		&d.AmountCents,
		&d.Message,
		&d.StartDate,
		&d.EndDate,
		&statusStr,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Devis{}, fmt.Errorf("%s: %w", op, repository.ErrDevisNotFound)
		}
		return domain.Devis{}, fmt.Errorf("%s: %w", op, err)
	}

	d.Status = domain.DevisStatus(statusStr)
	return d, nil
}

// ListDevisByDemande returns every devis submitted for a demande.
func (r *DemandeRepository) ListDevisByDemande(ctx context.Context, demandeID uuid.UUID) ([]domain.Devis, error) {
	const op = "DemandeRepository.ListDevisByDemande"

	query := `
		SELECT devis_id, demande_id, artisan_id, amount_cents, message,
		       start_date, end_date, status, created_at, updated_at
		FROM devis
		WHERE demande_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, demandeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []domain.Devis
	for rows.Next() {
		var d domain.Devis
		var statusStr string
		if err := rows.Scan(
			&d.ID, &d.DemandeID, &d.ArtisanID, &d.AmountCents, &d.Message,
			&d.StartDate, &d.EndDate, &statusStr, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", op, err)
		}
		d.Status = domain.DevisStatus(statusStr)
		list = append(list, d)
	}

	return list, rows.Err()
}

// AcceptDevis marks the devis accepted, rejects the others, closes the
// demande and signs the contract, all in one transaction. The contract's
// date range occupies the artisan's availability from then on.
func (r *DemandeRepository) AcceptDevis(ctx context.Context, devis domain.Devis, clientID uuid.UUID) (domain.Contract, error) {
	const op = "DemandeRepository.AcceptDevis"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Contract{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE devis SET status = $1, updated_at = NOW() WHERE devis_id = $2 AND status = $3`,
		domain.DevisStatusAccepted.String(), devis.ID, domain.DevisStatusPending.String())
	if err != nil {
		return domain.Contract{}, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Contract{}, fmt.Errorf("%s: %w", op, repository.ErrDevisNotFound)
	}

	_, err = tx.Exec(ctx,
		`UPDATE devis SET status = $1, updated_at = NOW() WHERE demande_id = $2 AND devis_id != $3 AND status = $4`,
		domain.DevisStatusRejected.String(), devis.DemandeID, devis.ID, domain.DevisStatusPending.String())
	if err != nil {
		return domain.Contract{}, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE demandes SET status = $1, updated_at = NOW() WHERE demande_id = $2`,
		domain.DemandeStatusAccepted.String(), devis.DemandeID)
	if err != nil {
		return domain.Contract{}, fmt.Errorf("%s: %w", op, err)
	}

	contract := domain.Contract{
		DemandeID:   devis.DemandeID,
		DevisID:     devis.ID,
		ArtisanID:   devis.ArtisanID,
		ClientID:    clientID,
		AmountCents: devis.AmountCents,
		StartDate:   devis.StartDate,
		EndDate:     devis.EndDate,
		Status:      domain.ContractStatusActive,
		SignedAt:    time.Now(),
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO contracts (
			demande_id, devis_id, artisan_id, client_id,
			amount_cents, start_date, end_date, status, signed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING contract_id, created_at
	`,
		contract.DemandeID, contract.DevisID, contract.ArtisanID, contract.ClientID,
		contract.AmountCents, contract.StartDate, contract.EndDate,
		contract.Status.String(), contract.SignedAt,
	).Scan(&contract.ID, &contract.CreatedAt)
	if err != nil {
		return domain.Contract{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Contract{}, fmt.Errorf("%s: %w", op, err)
	}

	return contract, nil
}

func marshalDates(dates []time.Time) ([]byte, error) {
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, domain.DayKey(d))
	}
	return json.Marshal(keys)
}

func unmarshalDates(data []byte) ([]time.Time, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		d, err := domain.ParseDay(k)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}
