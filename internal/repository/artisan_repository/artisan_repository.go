package artisan_repository

import (
	"context"
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

type ArtisanRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewArtisanRepository(db *pgxpool.Pool, log *slog.Logger) *ArtisanRepository {
	return &ArtisanRepository{db: db, log: log}
}

// CreateArtisan inserts a new profile with its service zones.
func (r *ArtisanRepository) CreateArtisan(ctx context.Context, artisan domain.ArtisanProfile) (uuid.UUID, error) {
	const op = "ArtisanRepository.CreateArtisan"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO artisans (
			user_id, company_name, siren, siret, categories, status,
			notation, nombre_avis,
			siret_verified, kbis_verified, identity_verified,
			liability_verified, decennale_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING artisan_id
	`

	var id uuid.UUID
	err = tx.QueryRow(ctx, query,
		artisan.UserID,
		artisan.CompanyName,
		artisan.Siren,
		artisan.Siret,
		categoriesToStrings(artisan.Categories),
		artisan.Status.String(),
		artisan.Notation,
		artisan.NombreAvis,
		artisan.Verification.SiretVerified,
		artisan.Verification.KbisVerified,
		artisan.Verification.IdentityVerified,
		artisan.Verification.LiabilityVerified,
		artisan.Verification.DecennaleVerified,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, zone := range artisan.Zones {
		if err := insertZone(ctx, tx, id, zone); err != nil {
			return uuid.Nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func insertZone(ctx context.Context, tx pgx.Tx, artisanID uuid.UUID, zone domain.ServiceZone) error {
	var lat, lon *float64
	if zone.GPS != nil {
		lat = &zone.GPS.Latitude
		lon = &zone.GPS.Longitude
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO artisan_zones (artisan_id, city, latitude, longitude) VALUES ($1, $2, $3, $4)`,
		artisanID, zone.City, lat, lon,
	)
	return err
}

// GetByID loads one profile with its zones and calendar.
func (r *ArtisanRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error) {
	const op = "ArtisanRepository.GetByID"

	artisans, err := r.queryArtisans(ctx, "artisan_id = $1", []interface{}{id}, 1)
	if err != nil {
		return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(artisans) == 0 {
		return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, repository.ErrArtisanNotFound)
	}

	return artisans[0], nil
}

// GetByUserID loads the profile owned by a user account.
func (r *ArtisanRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.ArtisanProfile, error) {
	const op = "ArtisanRepository.GetByUserID"

	artisans, err := r.queryArtisans(ctx, "user_id = $1", []interface{}{userID}, 1)
	if err != nil {
		return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(artisans) == 0 {
		return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, repository.ErrArtisanNotFound)
	}

	return artisans[0], nil
}

// ListCandidates returns the candidate pool for a search. The category and
// status filters are pushed down to SQL; scoring happens in the matching
// engine, never here.
func (r *ArtisanRepository) ListCandidates(ctx context.Context, category domain.TradeCategory, status domain.ArtisanStatus, limit int) ([]domain.ArtisanProfile, error) {
	const op = "ArtisanRepository.ListCandidates"

	if limit <= 0 {
		limit = 200
	}

	artisans, err := r.queryArtisans(ctx,
		"$1 = ANY(categories) AND status = $2",
		[]interface{}{category.String(), status.String()},
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return artisans, nil
}

// queryArtisans runs the base profile query for a WHERE fragment and
// hydrates zones, calendars and contract-occupied days for every row.
func (r *ArtisanRepository) queryArtisans(ctx context.Context, where string, params []interface{}, limit int) ([]domain.ArtisanProfile, error) {
	query := fmt.Sprintf(`
		SELECT
			artisan_id, user_id, company_name, siren, siret, categories, status,
			notation, nombre_avis,
			siret_verified, kbis_verified, identity_verified,
			liability_verified, decennale_verified,
			created_at, updated_at
		FROM artisans
		WHERE %s
		ORDER BY created_at DESC, artisan_id DESC
		LIMIT %d
	`, where, limit)

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artisans []domain.ArtisanProfile
	var ids []uuid.UUID
	for rows.Next() {
		a, err := scanArtisan(rows)
		if err != nil {
			return nil, err
		}
		artisans = append(artisans, a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(artisans) == 0 {
		return nil, nil
	}

	if err := r.hydrate(ctx, artisans, ids); err != nil {
		return nil, err
	}

	return artisans, nil
}

func scanArtisan(rows pgx.Rows) (domain.ArtisanProfile, error) {
	var a domain.ArtisanProfile
	var categories []string
	var statusStr string

	err := rows.Scan(
		&a.ID,
		&a.UserID,
		&a.CompanyName,
		&a.Siren,
		&a.Siret,
		&categories,
		&statusStr,
		&a.Notation,
		&a.NombreAvis,
		&a.Verification.SiretVerified,
		&a.Verification.KbisVerified,
		&a.Verification.IdentityVerified,
		&a.Verification.LiabilityVerified,
		&a.Verification.DecennaleVerified,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.ArtisanProfile{}, err
	}

	a.Status = domain.ArtisanStatus(statusStr)
	a.Categories = stringsToCategories(categories)
	a.Calendar = domain.Calendar{
		Slots:    make(map[string]bool),
		Weekly:   make(domain.WeeklyPattern),
		Occupied: make(map[string]bool),
	}

	return a, nil
}

// hydrate fills zones, availability slots, weekly patterns and the
// contract-occupied days for a batch of profiles.
func (r *ArtisanRepository) hydrate(ctx context.Context, artisans []domain.ArtisanProfile, ids []uuid.UUID) error {
	byID := make(map[uuid.UUID]*domain.ArtisanProfile, len(artisans))
	for i := range artisans {
		byID[artisans[i].ID] = &artisans[i]
	}

	// Zones
	rows, err := r.db.Query(ctx,
		`SELECT artisan_id, city, latitude, longitude FROM artisan_zones WHERE artisan_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("zones: %w", err)
	}
	for rows.Next() {
		var artisanID uuid.UUID
		var city string
		var lat, lon *float64
		if err := rows.Scan(&artisanID, &city, &lat, &lon); err != nil {
			rows.Close()
			return fmt.Errorf("zones scan: %w", err)
		}
		zone := domain.ServiceZone{City: city}
		if lat != nil && lon != nil {
			zone.GPS = &domain.GPSCoordinates{Latitude: *lat, Longitude: *lon}
		}
		if a, ok := byID[artisanID]; ok {
			a.Zones = append(a.Zones, zone)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("zones: %w", err)
	}

	// Explicit availability slots
	rows, err = r.db.Query(ctx,
		`SELECT artisan_id, day, available FROM availability_slots WHERE artisan_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	for rows.Next() {
		var artisanID uuid.UUID
		var day time.Time
		var available bool
		if err := rows.Scan(&artisanID, &day, &available); err != nil {
			rows.Close()
			return fmt.Errorf("slots scan: %w", err)
		}
		if a, ok := byID[artisanID]; ok {
			a.Calendar.Slots[domain.DayKey(day)] = available
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("slots: %w", err)
	}

	// Recurring weekly patterns
	rows, err = r.db.Query(ctx,
		`SELECT artisan_id, weekday, available FROM weekly_patterns WHERE artisan_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("patterns: %w", err)
	}
	for rows.Next() {
		var artisanID uuid.UUID
		var weekday int
		var available bool
		if err := rows.Scan(&artisanID, &weekday, &available); err != nil {
			rows.Close()
			return fmt.Errorf("patterns scan: %w", err)
		}
		if a, ok := byID[artisanID]; ok {
			a.Calendar.Weekly[time.Weekday(weekday)] = available
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("patterns: %w", err)
	}

	// Active signed contracts occupy their date ranges
	rows, err = r.db.Query(ctx,
		`SELECT artisan_id, start_date, end_date FROM contracts WHERE artisan_id = ANY($1) AND status = $2`,
		ids, domain.ContractStatusActive.String())
	if err != nil {
		return fmt.Errorf("contracts: %w", err)
	}
	for rows.Next() {
		var artisanID uuid.UUID
		var start, end time.Time
		if err := rows.Scan(&artisanID, &start, &end); err != nil {
			rows.Close()
			return fmt.Errorf("contracts scan: %w", err)
		}
		if a, ok := byID[artisanID]; ok {
			a.Calendar.OccupyRange(start, end)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("contracts: %w", err)
	}

	return nil
}

// UpdateArtisan applies a partial update to the base profile fields.
func (r *ArtisanRepository) UpdateArtisan(ctx context.Context, artisanID uuid.UUID, update domain.ArtisanFilter) error {
	const op = "ArtisanRepository.UpdateArtisan"

	setClauses := []string{}
	params := []interface{}{}
	paramCount := 1

	if update.CompanyName != nil {
		setClauses = append(setClauses, fmt.Sprintf("company_name = $%d", paramCount))
		params = append(params, *update.CompanyName)
		paramCount++
	}
	if update.Siret != nil {
		setClauses = append(setClauses, fmt.Sprintf("siret = $%d", paramCount))
		params = append(params, *update.Siret)
		paramCount++
	}
	if update.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", paramCount))
		params = append(params, (*update.Status).String())
		paramCount++
	}

	if len(setClauses) == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNoFieldsToUpdate)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE artisans SET %s WHERE artisan_id = $%d`, strings.Join(setClauses, ", "), paramCount)
	params = append(params, artisanID)

	tag, err := r.db.Exec(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrArtisanNotFound)
	}

	return nil
}

// UpdateVerification overwrites the verification flags.
func (r *ArtisanRepository) UpdateVerification(ctx context.Context, artisanID uuid.UUID, flags domain.VerificationFlags) error {
	const op = "ArtisanRepository.UpdateVerification"

	query := `
		UPDATE artisans SET
			siret_verified = $1, kbis_verified = $2, identity_verified = $3,
			liability_verified = $4, decennale_verified = $5, updated_at = NOW()
		WHERE artisan_id = $6
	`

	tag, err := r.db.Exec(ctx, query,
		flags.SiretVerified, flags.KbisVerified, flags.IdentityVerified,
		flags.LiabilityVerified, flags.DecennaleVerified, artisanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrArtisanNotFound)
	}

	return nil
}

// UpdateRating replaces the aggregate rating after a new review.
func (r *ArtisanRepository) UpdateRating(ctx context.Context, artisanID uuid.UUID, notation float64, nombreAvis int32) error {
	const op = "ArtisanRepository.UpdateRating"

	tag, err := r.db.Exec(ctx,
		`UPDATE artisans SET notation = $1, nombre_avis = $2, updated_at = NOW() WHERE artisan_id = $3`,
		notation, nombreAvis, artisanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrArtisanNotFound)
	}

	return nil
}

// UpsertAvailabilitySlot writes one explicit calendar day.
func (r *ArtisanRepository) UpsertAvailabilitySlot(ctx context.Context, slot domain.AvailabilitySlot) error {
	const op = "ArtisanRepository.UpsertAvailabilitySlot"

	query := `
		INSERT INTO availability_slots (artisan_id, day, available)
		VALUES ($1, $2, $3)
		ON CONFLICT (artisan_id, day) DO UPDATE SET available = EXCLUDED.available
	`

	if _, err := r.db.Exec(ctx, query, slot.ArtisanID, slot.Day, slot.Available); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SetWeeklyPattern replaces the recurring pattern in one transaction.
func (r *ArtisanRepository) SetWeeklyPattern(ctx context.Context, artisanID uuid.UUID, pattern domain.WeeklyPattern) error {
	const op = "ArtisanRepository.SetWeeklyPattern"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM weekly_patterns WHERE artisan_id = $1`, artisanID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for weekday, available := range pattern {
		_, err := tx.Exec(ctx,
			`INSERT INTO weekly_patterns (artisan_id, weekday, available) VALUES ($1, $2, $3)`,
			artisanID, int(weekday), available)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListArtisans returns profiles by filter with cursor pagination.
func (r *ArtisanRepository) ListArtisans(ctx context.Context, filter domain.ArtisanFilter) (*domain.PaginatedResult[domain.ArtisanProfile], error) {
	const op = "ArtisanRepository.ListArtisans"

	pageSize := int(domain.DefaultPageSize)
	var cursor *domain.PageCursor

	if filter.Pagination != nil {
		pageSize = int(domain.NormalizePageSize(filter.Pagination.PageSize))
		if filter.Pagination.PageToken != "" {
			var err error
			cursor, err = domain.DecodePageCursor(filter.Pagination.PageToken)
			if err != nil {
				r.log.Warn("failed to decode page cursor, starting from beginning", "error", err)
				cursor = nil
			}
		}
	}

	whereClauses := []string{"1=1"}
	params := []interface{}{}
	paramCount := 1

	if filter.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", paramCount))
		params = append(params, (*filter.Status).String())
		paramCount++
	}
	if filter.Category != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("$%d = ANY(categories)", paramCount))
		params = append(params, (*filter.Category).String())
		paramCount++
	}
	if filter.UserID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("user_id = $%d", paramCount))
		params = append(params, *filter.UserID)
		paramCount++
	}
	if filter.Siret != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("siret = $%d", paramCount))
		params = append(params, *filter.Siret)
		paramCount++
	}

	var totalCount int32
	countQuery := "SELECT COUNT(*) FROM artisans WHERE " + strings.Join(whereClauses, " AND ")
	if err := r.db.QueryRow(ctx, countQuery, params...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("%s: count failed: %w", op, err)
	}

	if cursor != nil {
		whereClauses = append(whereClauses,
			fmt.Sprintf("(created_at, artisan_id) < ($%d, $%d)", paramCount, paramCount+1))
		params = append(params, cursor.LastCreatedAt, cursor.LastID)
		paramCount += 2
	}

	artisans, err := r.queryArtisans(ctx, strings.Join(whereClauses, " AND "), params, pageSize+1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hasMore := len(artisans) > pageSize
	if hasMore {
		artisans = artisans[:pageSize]
	}

	var nextPageToken string
	if hasMore && len(artisans) > 0 {
		last := artisans[len(artisans)-1]
		nextCursor := &domain.PageCursor{LastID: last.ID, LastCreatedAt: last.CreatedAt}
		nextPageToken = nextCursor.Encode()
	}

	return &domain.PaginatedResult[domain.ArtisanProfile]{
		Items:         artisans,
		NextPageToken: nextPageToken,
		TotalCount:    totalCount,
		HasMore:       hasMore,
	}, nil
}

func categoriesToStrings(cats []domain.TradeCategory) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.String())
	}
	return out
}

func stringsToCategories(values []string) []domain.TradeCategory {
	out := make([]domain.TradeCategory, 0, len(values))
	for _, v := range values {
		out = append(out, domain.TradeCategory(v))
	}
	return out
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
