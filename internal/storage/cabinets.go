package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wbanalytics_api/internal/models"
)

func (s *Store) Cabinet(ctx context.Context, id int64) (*models.Cabinet, error) {
	var cabinet models.Cabinet
	err := s.db.GetContext(ctx, &cabinet, `SELECT * FROM cabinets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cabinet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting cabinet %d: %w", id, err)
	}
	return &cabinet, nil
}

func (s *Store) Cabinets(ctx context.Context) ([]models.Cabinet, error) {
	var cabinets []models.Cabinet
	if err := s.db.SelectContext(ctx, &cabinets, `SELECT * FROM cabinets ORDER BY id`); err != nil {
		return nil, fmt.Errorf("selecting cabinets: %w", err)
	}
	return cabinets, nil
}

func (s *Store) CreateCabinet(ctx context.Context, name, encryptedToken string) (*models.Cabinet, error) {
	var cabinet models.Cabinet
	err := s.db.GetContext(ctx, &cabinet,
		`INSERT INTO cabinets (name, api_token) VALUES ($1, $2) RETURNING *`,
		name, encryptedToken)
	if err != nil {
		return nil, fmt.Errorf("inserting cabinet: %w", err)
	}
	return &cabinet, nil
}

// UpdateCabinet обновляет имя и, если токен непустой, токен кабинета.
func (s *Store) UpdateCabinet(ctx context.Context, id int64, name, encryptedToken string) (*models.Cabinet, error) {
	var cabinet models.Cabinet
	var err error
	if encryptedToken != "" {
		err = s.db.GetContext(ctx, &cabinet,
			`UPDATE cabinets SET name = $2, api_token = $3 WHERE id = $1 RETURNING *`,
			id, name, encryptedToken)
	} else {
		err = s.db.GetContext(ctx, &cabinet,
			`UPDATE cabinets SET name = $2 WHERE id = $1 RETURNING *`,
			id, name)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cabinet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updating cabinet %d: %w", id, err)
	}
	return &cabinet, nil
}

func (s *Store) DeleteCabinet(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cabinets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting cabinet %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cabinet %d: %w", id, ErrNotFound)
	}
	return nil
}
