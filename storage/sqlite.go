// Package storage provides SQLite persistence for generated polar
// meshes.
//
// Information Hiding:
// - SQLite connection management hidden behind the store type
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"aeropolar/analysis"
	"aeropolar/polar"
	"aeropolar/solver"
)

// ErrMeshNotFound reports a lookup for a fingerprint or mesh id with no
// stored mesh.
var ErrMeshNotFound = errors.New("mesh not found")

// MeshStore persists generated polar meshes keyed by geometry
// fingerprint. One mesh is kept per fingerprint: saving a new mesh for
// a fingerprint replaces the previous one.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type MeshStore struct {
	db *sql.DB
}

// MeshMeta describes a stored mesh without its tables.
type MeshMeta struct {
	ID          string
	Foil        string
	Fingerprint uint64
	Spec        analysis.MeshSpec
	ModelSize   string
	CreatedAt   time.Time
}

// StoredMesh is a mesh loaded back from the store, tables sorted
// ascending by Reynolds number.
type StoredMesh struct {
	Meta   MeshMeta
	Polars []*polar.Polar
}

// Open opens or creates a mesh database at the given path.
// Creates parent directories if they don't exist.
func Open(path string) (*MeshStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &MeshStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// OpenInMemory creates an in-memory database (useful for testing).
func OpenInMemory() (*MeshStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &MeshStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *MeshStore) Close() error {
	return s.db.Close()
}

func (s *MeshStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS meshes (
			id TEXT PRIMARY KEY,
			foil TEXT NOT NULL,
			fingerprint INTEGER NOT NULL UNIQUE,
			re_min REAL NOT NULL,
			re_max REAL NOT NULL,
			alpha_min REAL NOT NULL,
			alpha_max REAL NOT NULL,
			ncrit REAL NOT NULL,
			xtr_top REAL NOT NULL,
			xtr_bot REAL NOT NULL,
			model_size TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mesh_polars (
			mesh_id TEXT NOT NULL,
			re REAL NOT NULL,
			idx INTEGER NOT NULL,
			alpha REAL NOT NULL,
			cl REAL NOT NULL,
			cd REAL NOT NULL,
			xtr_top REAL NOT NULL,
			xtr_bot REAL NOT NULL,
			FOREIGN KEY (mesh_id) REFERENCES meshes(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_mesh_polars_lookup
		ON mesh_polars(mesh_id, re, idx);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveMesh stores a generated mesh, replacing any prior mesh for the
// same fingerprint. Returns the new mesh id.
func (s *MeshStore) SaveMesh(ctx context.Context, foilName string, fingerprint uint64, spec analysis.MeshSpec, polars []*polar.Polar) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Replace semantics: one mesh per fingerprint.
	var oldID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM meshes WHERE fingerprint = ?`, int64(fingerprint)).Scan(&oldID)
	switch {
	case err == nil:
		if err := deleteMeshTx(ctx, tx, oldID); err != nil {
			return "", err
		}
	case errors.Is(err, sql.ErrNoRows):
		// nothing to replace
	default:
		return "", fmt.Errorf("failed to check existing mesh: %w", err)
	}

	meshID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO meshes (id, foil, fingerprint, re_min, re_max, alpha_min, alpha_max,
			ncrit, xtr_top, xtr_bot, model_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meshID, foilName, int64(fingerprint),
		spec.ReMin, spec.ReMax, spec.AlphaMin, spec.AlphaMax,
		spec.NCrit, spec.XTripTop, spec.XTripBot,
		spec.ModelSize.String(), time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert mesh: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mesh_polars (mesh_id, re, idx, alpha, cl, cd, xtr_top, xtr_bot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range polars {
		for i := 0; i < p.Len(); i++ {
			_, err := stmt.ExecContext(ctx, meshID, p.Reynolds, i,
				p.Alpha[i], p.Cl[i], p.Cd[i], p.XTrTop[i], p.XTrBot[i])
			if err != nil {
				return "", fmt.Errorf("failed to insert sample: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit mesh: %w", err)
	}
	return meshID, nil
}

// LoadMesh returns the stored mesh for a geometry fingerprint, tables
// sorted ascending by Reynolds number. Returns ErrMeshNotFound when no
// mesh exists for the fingerprint.
func (s *MeshStore) LoadMesh(ctx context.Context, fingerprint uint64) (*StoredMesh, error) {
	meta, err := s.metaByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT re, alpha, cl, cd, xtr_top, xtr_bot
		FROM mesh_polars WHERE mesh_id = ?
		ORDER BY re ASC, idx ASC`, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var polars []*polar.Polar
	var current *polar.Polar
	for rows.Next() {
		var re, alpha, cl, cd, top, bot float64
		if err := rows.Scan(&re, &alpha, &cl, &cd, &top, &bot); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if current == nil || current.Reynolds != re {
			current = polar.New(fmt.Sprintf("%s Re=%.4g", meta.Foil, re), polar.Type1)
			current.Reynolds = re
			current.NCrit = meta.Spec.NCrit
			current.XTripTop = meta.Spec.XTripTop
			current.XTripBot = meta.Spec.XTripBot
			polars = append(polars, current)
		}
		current.Alpha = append(current.Alpha, alpha)
		current.Cl = append(current.Cl, cl)
		current.Cd = append(current.Cd, cd)
		current.Re = append(current.Re, re)
		current.XTrTop = append(current.XTrTop, top)
		current.XTrBot = append(current.XTrBot, bot)
		current.Converged = append(current.Converged, true)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	return &StoredMesh{Meta: meta, Polars: polars}, nil
}

// FindByFoil returns the newest stored mesh for a foil name, or
// ErrMeshNotFound. Fingerprint lookup is preferred when the geometry is
// at hand; name lookup serves the CLI, which has only the stored name.
func (s *MeshStore) FindByFoil(ctx context.Context, foilName string) (*StoredMesh, error) {
	var fp int64
	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint FROM meshes WHERE foil = ?
		ORDER BY created_at DESC LIMIT 1`, foilName).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: foil %q", ErrMeshNotFound, foilName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up mesh by foil: %w", err)
	}
	return s.LoadMesh(ctx, uint64(fp))
}

// ListMeshes returns metadata for all stored meshes, newest first.
func (s *MeshStore) ListMeshes(ctx context.Context) ([]MeshMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, foil, fingerprint, re_min, re_max, alpha_min, alpha_max,
			ncrit, xtr_top, xtr_bot, model_size, created_at
		FROM meshes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list meshes: %w", err)
	}
	defer rows.Close()

	var metas []MeshMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// DeleteMesh removes a stored mesh and its samples.
func (s *MeshStore) DeleteMesh(ctx context.Context, meshID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteMeshTx(ctx, tx, meshID); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteMeshTx(ctx context.Context, tx *sql.Tx, meshID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM mesh_polars WHERE mesh_id = ?`, meshID); err != nil {
		return fmt.Errorf("failed to delete mesh samples: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meshes WHERE id = ?`, meshID); err != nil {
		return fmt.Errorf("failed to delete mesh: %w", err)
	}
	return nil
}

func (s *MeshStore) metaByFingerprint(ctx context.Context, fingerprint uint64) (MeshMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, foil, fingerprint, re_min, re_max, alpha_min, alpha_max,
			ncrit, xtr_top, xtr_bot, model_size, created_at
		FROM meshes WHERE fingerprint = ?`, int64(fingerprint))

	meta, err := scanMeta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return MeshMeta{}, fmt.Errorf("%w: fingerprint %#x", ErrMeshNotFound, fingerprint)
	}
	return meta, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMeta(row rowScanner) (MeshMeta, error) {
	var meta MeshMeta
	var fp, createdAt int64
	var modelSize string
	err := row.Scan(&meta.ID, &meta.Foil, &fp,
		&meta.Spec.ReMin, &meta.Spec.ReMax, &meta.Spec.AlphaMin, &meta.Spec.AlphaMax,
		&meta.Spec.NCrit, &meta.Spec.XTripTop, &meta.Spec.XTripBot,
		&modelSize, &createdAt)
	if err != nil {
		return MeshMeta{}, err
	}
	meta.Fingerprint = uint64(fp)
	meta.ModelSize = modelSize
	meta.Spec.ModelSize = solver.ModelSizeOrDefault(modelSize)
	meta.CreatedAt = time.Unix(createdAt, 0)
	return meta, nil
}
