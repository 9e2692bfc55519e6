package repository

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/sublimall/internal/models"
)

const packageColumns = `id, member_id, version, platform, arch, updated_at, blob_key, size`

func scanPackage(row rowScanner) (*models.Package, error) {
	var p models.Package
	var platform, arch sql.NullString
	if err := row.Scan(&p.ID, &p.MemberID, &p.Version, &platform, &arch,
		&p.UpdatedAt, &p.BlobKey, &p.Size); err != nil {
		return nil, err
	}
	p.Platform = stringPtr(platform)
	p.Arch = stringPtr(arch)
	return &p, nil
}

// UpsertPackage сохраняет пакет. Повторная загрузка той же версии
// заменяет запись и обновляет updated_at.
func (s *Storage) UpsertPackage(ctx context.Context, p models.Package) (*models.Package, error) {
	const op = "storage.UpsertPackage"
	query := `INSERT INTO packages (member_id, version, platform, arch, blob_key, size, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())
			  ON CONFLICT (member_id, version) DO UPDATE
			  SET platform = EXCLUDED.platform,
			      arch = EXCLUDED.arch,
			      blob_key = EXCLUDED.blob_key,
			      size = EXCLUDED.size,
			      updated_at = NOW()
			  RETURNING ` + packageColumns
	saved, err := scanPackage(s.conn(ctx).QueryRowContext(ctx, query,
		p.MemberID, p.Version, nullString(p.Platform), nullString(p.Arch), p.BlobKey, p.Size))
	if err != nil {
		return nil, mapError(op, err)
	}
	return saved, nil
}

// ListPackages возвращает пакеты участника по возрастанию версии.
func (s *Storage) ListPackages(ctx context.Context, memberID int64) ([]*models.Package, error) {
	const op = "storage.ListPackages"
	query := `SELECT ` + packageColumns + ` FROM packages WHERE member_id = $1 ORDER BY version`
	rows, err := s.conn(ctx).QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return result, nil
}

// GetPackageByVersion возвращает пакет участника указанной версии.
func (s *Storage) GetPackageByVersion(ctx context.Context, memberID int64, version int) (*models.Package, error) {
	const op = "storage.GetPackageByVersion"
	query := `SELECT ` + packageColumns + ` FROM packages WHERE member_id = $1 AND version = $2`
	p, err := scanPackage(s.conn(ctx).QueryRowContext(ctx, query, memberID, version))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}

// DeletePackage удаляет пакет участника и возвращает ключ его файла.
func (s *Storage) DeletePackage(ctx context.Context, memberID, id int64) (string, error) {
	const op = "storage.DeletePackage"
	query := `DELETE FROM packages WHERE id = $1 AND member_id = $2 RETURNING blob_key`
	var blobKey string
	if err := s.conn(ctx).QueryRowContext(ctx, query, id, memberID).Scan(&blobKey); err != nil {
		return "", mapError(op, err)
	}
	return blobKey, nil
}

// DeletePackagesByMember удаляет все пакеты участника и возвращает ключи их файлов.
func (s *Storage) DeletePackagesByMember(ctx context.Context, memberID int64) ([]string, error) {
	const op = "storage.DeletePackagesByMember"
	rows, err := s.conn(ctx).QueryContext(ctx,
		`DELETE FROM packages WHERE member_id = $1 RETURNING blob_key`, memberID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, mapError(op, err)
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return keys, nil
}
