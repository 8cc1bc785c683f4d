// Package gormstore backs the evidence ledger with a relational database:
// Postgres in production, a local sqlite file when no DSN is configured.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

type Store struct {
	db *gorm.DB
}

// OpenPostgres connects to Postgres and migrates the ledger schema.
func OpenPostgres(dsn string) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStore(gdb)
}

// OpenSQLite opens (or creates) a sqlite ledger at path.
func OpenSQLite(path string) (*Store, error) {
	gdb, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newStore(gdb)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
}

func newStore(gdb *gorm.DB) (*Store, error) {
	if err := gdb.AutoMigrate(&EvidenceModel{}, &AccessRequestModel{}, &GrantedAccessModel{}); err != nil {
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}
	return &Store{db: gdb}, nil
}

func (s *Store) Create(ctx context.Context, rec evidence.Record) (uint64, error) {
	model := EvidenceModel{
		Owner:          evidence.NormalizeAddress(rec.Owner),
		ContentAddress: rec.ContentAddress,
		EncryptionKey:  rec.EncryptionKey,
		Description:    rec.Description,
		CreatedAt:      rec.CreatedAt,
		Active:         rec.Active,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, fmt.Errorf("create evidence record: %w", err)
	}
	return model.ID, nil
}

func (s *Store) Get(ctx context.Context, id uint64) (evidence.Record, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *Store) ListByOwner(ctx context.Context, owner string) ([]evidence.Record, error) {
	owner = evidence.NormalizeAddress(owner)

	var models []EvidenceModel
	err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]evidence.Record, 0, len(models))
	for _, m := range models {
		rec, err := s.load(s.db.WithContext(ctx), m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id uint64, fn func(rec *evidence.Record) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// Postgres needs an explicit row lock for read-modify-write;
		// sqlite serializes writers on its own and rejects FOR UPDATE.
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var model EvidenceModel
		if err := q.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return evidence.ErrNotFound
			}
			return err
		}

		rec, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}

		return persistCollections(tx, id, rec)
	})
}

func (s *Store) Purge(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM granted_access",
			"DELETE FROM access_requests",
			"DELETE FROM evidence_records",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		// Reset the id sequence so a purged ledger starts at 1 again.
		switch tx.Dialector.Name() {
		case "postgres":
			return tx.Exec("ALTER SEQUENCE evidence_records_id_seq RESTART WITH 1").Error
		default:
			// sqlite_sequence only exists once an AUTOINCREMENT table
			// has seen an insert, so a failure here is ignorable.
			tx.Exec("DELETE FROM sqlite_sequence WHERE name = 'evidence_records'")
			return nil
		}
	})
}

func (s *Store) load(tx *gorm.DB, id uint64) (evidence.Record, error) {
	var model EvidenceModel
	if err := tx.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return evidence.Record{}, evidence.ErrNotFound
		}
		return evidence.Record{}, err
	}

	var requests []AccessRequestModel
	if err := tx.Where("evidence_id = ?", id).Order("seq ASC").Find(&requests).Error; err != nil {
		return evidence.Record{}, err
	}
	var grants []GrantedAccessModel
	if err := tx.Where("evidence_id = ?", id).Order("id ASC").Find(&grants).Error; err != nil {
		return evidence.Record{}, err
	}

	rec := evidence.Record{
		ID:             model.ID,
		Owner:          model.Owner,
		ContentAddress: model.ContentAddress,
		EncryptionKey:  model.EncryptionKey,
		Description:    model.Description,
		CreatedAt:      model.CreatedAt,
		Active:         model.Active,
	}
	for _, r := range requests {
		rec.AccessRequests = append(rec.AccessRequests, evidence.AccessRequest{
			ID:        r.ID,
			Requester: r.Requester,
			Timestamp: r.Timestamp,
			Status:    evidence.RequestStatus(r.Status),
		})
	}
	for _, g := range grants {
		rec.GrantedAccess = append(rec.GrantedAccess, evidence.GrantedAccess{
			Requester: g.Requester,
			GrantedAt: g.GrantedAt,
		})
	}
	return rec, nil
}

func persistCollections(tx *gorm.DB, id uint64, rec evidence.Record) error {
	for _, r := range rec.AccessRequests {
		model := AccessRequestModel{
			ID:         r.ID,
			EvidenceID: id,
			Requester:  r.Requester,
			Timestamp:  r.Timestamp,
			Status:     string(r.Status),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status"}),
		}).Create(&model).Error
		if err != nil {
			return err
		}
	}

	// Grants are replaced wholesale; revoke removes by filtering.
	if err := tx.Where("evidence_id = ?", id).Delete(&GrantedAccessModel{}).Error; err != nil {
		return err
	}
	for _, g := range rec.GrantedAccess {
		model := GrantedAccessModel{
			EvidenceID: id,
			Requester:  g.Requester,
			GrantedAt:  g.GrantedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
	}
	return nil
}
