package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"designer-pro/core"

	"github.com/h2non/filetype"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// fsStore keeps designs as JSON files under <base>/designs/<user>/<id>.json
// and assets under <base>/assets/<name>.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) (*fsStore, error) {
	for _, dir := range []string{"designs", "assets"} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return &fsStore{basePath: basePath}, nil
}

func (s *fsStore) userPath(userID string) (string, error) {
	if !core.ValidKey(userID) {
		return "", fmt.Errorf("user %q: %w", userID, core.ErrInvalidKey)
	}
	return filepath.Join(s.basePath, "designs", userID), nil
}

func (s *fsStore) designPath(userID, id string) (string, error) {
	userPath, err := s.userPath(userID)
	if err != nil {
		return "", err
	}
	if !core.ValidKey(id) {
		return "", fmt.Errorf("design %q: %w", id, core.ErrInvalidKey)
	}
	return filepath.Join(userPath, id+".json"), nil
}

func (s *fsStore) List(ctx context.Context, userID string, limit int) ([]*core.Design, error) {
	userPath, err := s.userPath(userID)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("user_id", userID).WithField("path", userPath)

	files, err := os.ReadDir(userPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("User directory does not exist, returning empty list.")
			return []*core.Design{}, nil
		}
		log.WithError(err).Error("Failed to read user directory")
		return nil, err
	}

	designs := make([]*core.Design, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		d, err := readDesign(filepath.Join(userPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read design file %s, skipping", file.Name())
			continue
		}
		d.UserID = userID
		designs = append(designs, d)
	}
	designs = core.NewestFirst(designs, limit)

	log.Infof("Listed %d designs", len(designs))
	return designs, nil
}

func readDesign(path string) (*core.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d core.Design
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *fsStore) Get(ctx context.Context, userID, id string) (*core.Design, error) {
	filePath, err := s.designPath(userID, id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "design_id": id, "path": filePath})

	d, err := readDesign(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Design file not found")
			return nil, fmt.Errorf("design %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read design file")
		return nil, err
	}
	d.UserID = userID

	log.Info("Design retrieved successfully")
	return d, nil
}

func (s *fsStore) Create(ctx context.Context, design *core.Design) error {
	userPath, err := s.userPath(design.UserID)
	if err != nil {
		return err
	}
	design.ID = ulid.Make().String()
	design.CreatedAt = time.Now().UTC()
	filePath := filepath.Join(userPath, design.ID+".json")
	log := logrus.WithFields(logrus.Fields{"user_id": design.UserID, "design_id": design.ID, "path": filePath})

	if err := os.MkdirAll(userPath, 0755); err != nil {
		log.WithError(err).Error("Failed to create user directory")
		return err
	}

	data, err := json.Marshal(design)
	if err != nil {
		log.WithError(err).Error("Failed to marshal design for saving")
		return err
	}
	if err := writeFileAtomic(filePath, data); err != nil {
		log.WithError(err).Error("Failed to write design file")
		return err
	}

	log.Info("Design created successfully")
	return nil
}

func (s *fsStore) Delete(ctx context.Context, userID, id string) error {
	filePath, err := s.designPath(userID, id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "design_id": id, "path": filePath})

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Design file not found for deletion")
			return fmt.Errorf("design %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to delete design file")
		return err
	}

	log.Info("Design deleted successfully")
	return nil
}

func (s *fsStore) assetPath(name string) (string, error) {
	if !core.ValidKey(name) {
		return "", fmt.Errorf("asset %q: %w", name, core.ErrInvalidKey)
	}
	return filepath.Join(s.basePath, "assets", name), nil
}

// Put writes the asset bytes. The content type is not stored; Open sniffs it.
func (s *fsStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	filePath, err := s.assetPath(name)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filePath, data); err != nil {
		logrus.WithError(err).WithField("path", filePath).Error("Failed to write asset")
		return err
	}
	logrus.WithFields(logrus.Fields{"asset": name, "data_length": len(data)}).Info("Asset stored")
	return nil
}

func (s *fsStore) Open(ctx context.Context, name string) ([]byte, string, error) {
	filePath, err := s.assetPath(name)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("asset %s: %w", name, core.ErrNotFound)
		}
		return nil, "", err
	}
	contentType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}
	return data, contentType, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
