// Package sqldb stores designs and assets in a SQL database. SQLite
// (modernc.org/sqlite) and MySQL (go-sql-driver/mysql) are supported.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"designer-pro/core"

	"github.com/go-sql-driver/mysql"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type dialect struct {
	driver string
	schema []string
	// upsertAsset replaces an asset row.
	upsertAsset string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS designs (
				id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				name TEXT NOT NULL,
				canvas_width INTEGER NOT NULL,
				canvas_height INTEGER NOT NULL,
				background TEXT NOT NULL,
				background_image TEXT NOT NULL,
				elements BLOB NOT NULL,
				created_at INTEGER NOT NULL,
				PRIMARY KEY (user_id, id)
			);`,
			`CREATE INDEX IF NOT EXISTS designs_user_created ON designs (user_id, created_at);`,
			`CREATE TABLE IF NOT EXISTS assets (
				name TEXT PRIMARY KEY,
				content_type TEXT NOT NULL,
				data BLOB NOT NULL
			);`,
		},
		upsertAsset: "INSERT OR REPLACE INTO assets (name, content_type, data) VALUES (?, ?, ?)",
	}

	mysqlDialect = dialect{
		driver: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS designs (
				id VARCHAR(26) NOT NULL,
				user_id VARCHAR(191) NOT NULL,
				name VARCHAR(255) NOT NULL,
				canvas_width INT NOT NULL,
				canvas_height INT NOT NULL,
				background VARCHAR(64) NOT NULL,
				background_image TEXT NOT NULL,
				elements MEDIUMBLOB NOT NULL,
				created_at BIGINT NOT NULL,
				PRIMARY KEY (user_id, id),
				INDEX designs_user_created (user_id, created_at)
			) DEFAULT CHARSET=utf8mb4;`,
			`CREATE TABLE IF NOT EXISTS assets (
				name VARCHAR(191) NOT NULL PRIMARY KEY,
				content_type VARCHAR(127) NOT NULL,
				data LONGBLOB NOT NULL
			) DEFAULT CHARSET=utf8mb4;`,
		},
		upsertAsset: "REPLACE INTO assets (name, content_type, data) VALUES (?, ?, ?)",
	}
)

type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLite opens (and migrates) a SQLite database.
func NewSQLite(dataSourceName string) (*sqlStore, error) {
	return open(sqliteDialect, dataSourceName)
}

// NewMySQL opens (and migrates) a MySQL database.
func NewMySQL(dsn string) (*sqlStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	return open(mysqlDialect, cfg.FormatDSN())
}

func open(d dialect, dsn string) (*sqlStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.driver, err)
	}
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", d.driver, err)
		}
	}
	return &sqlStore{db: db, dialect: d}, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

const designColumns = "id, name, canvas_width, canvas_height, background, background_image, elements, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanDesign(row scanner, userID string) (*core.Design, error) {
	var (
		d        core.Design
		elements []byte
		created  int64
	)
	if err := row.Scan(&d.ID, &d.Name, &d.CanvasSize.Width, &d.CanvasSize.Height,
		&d.Background, &d.BackgroundImage, &elements, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(elements, &d.Elements); err != nil {
		return nil, fmt.Errorf("design %s: decode elements: %w", d.ID, err)
	}
	d.UserID = userID
	d.CreatedAt = time.Unix(0, created).UTC()
	return &d, nil
}

func (s *sqlStore) List(ctx context.Context, userID string, limit int) ([]*core.Design, error) {
	log := logrus.WithField("user_id", userID)
	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+designColumns+" FROM designs WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		log.WithError(err).Error("Failed to list designs")
		return nil, err
	}
	defer rows.Close()

	designs := []*core.Design{}
	for rows.Next() {
		d, err := scanDesign(rows, userID)
		if err != nil {
			log.WithError(err).Warn("Skipping unreadable design row")
			continue
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Infof("Listed %d designs", len(designs))
	return designs, nil
}

func (s *sqlStore) Get(ctx context.Context, userID, id string) (*core.Design, error) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "design_id": id})
	row := s.db.QueryRowContext(ctx,
		"SELECT "+designColumns+" FROM designs WHERE user_id = ? AND id = ?", userID, id)
	d, err := scanDesign(row, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Design not found for user")
			return nil, fmt.Errorf("design %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve design")
		return nil, err
	}
	log.Info("Design retrieved successfully")
	return d, nil
}

func (s *sqlStore) Create(ctx context.Context, design *core.Design) error {
	if design.UserID == "" {
		return fmt.Errorf("UserID cannot be empty")
	}
	elements, err := json.Marshal(design.Elements)
	if err != nil {
		return fmt.Errorf("encode elements: %w", err)
	}
	id := ulid.Make().String()
	now := time.Now().UTC()
	log := logrus.WithFields(logrus.Fields{"user_id": design.UserID, "design_id": id})

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO designs (id, user_id, name, canvas_width, canvas_height, background, background_image, elements, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, design.UserID, design.Name, design.CanvasSize.Width, design.CanvasSize.Height,
		design.Background, design.BackgroundImage, elements, now.UnixNano())
	if err != nil {
		log.WithError(err).Error("Failed to create design")
		return err
	}
	design.ID = id
	design.CreatedAt = now
	log.Info("Design created successfully")
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, userID, id string) error {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "design_id": id})
	res, err := s.db.ExecContext(ctx, "DELETE FROM designs WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		log.WithError(err).Error("Failed to delete design")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("Design not found for deletion")
		return fmt.Errorf("design %s: %w", id, core.ErrNotFound)
	}
	log.Info("Design deleted successfully")
	return nil
}

func (s *sqlStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	if !core.ValidKey(name) {
		return fmt.Errorf("asset %q: %w", name, core.ErrInvalidKey)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertAsset, name, contentType, data); err != nil {
		logrus.WithError(err).WithField("asset", name).Error("Failed to store asset")
		return err
	}
	logrus.WithFields(logrus.Fields{"asset": name, "data_length": len(data)}).Info("Asset stored")
	return nil
}

func (s *sqlStore) Open(ctx context.Context, name string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)
	err := s.db.QueryRowContext(ctx, "SELECT data, content_type FROM assets WHERE name = ?", name).Scan(&data, &contentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("asset %s: %w", name, core.ErrNotFound)
		}
		return nil, "", err
	}
	return data, contentType, nil
}
