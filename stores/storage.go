package stores

import (
	"context"
	"os"

	"designer-pro/core"
	"designer-pro/stores/aws"
	"designer-pro/stores/filesystem"
	"designer-pro/stores/memory"
	"designer-pro/stores/sqldb"

	"github.com/sirupsen/logrus"
)

// Store is a union interface that includes all store types.
type Store interface {
	core.DesignStore
	core.AssetStore
}

// GetStore builds the store selected by STORAGE_TYPE.
func GetStore() Store {
	storageType := os.Getenv("STORAGE_TYPE")
	var (
		store Store
		err   error
	)

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data" // Default path
		}
		storageField["basePath"] = basePath
		store, err = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "designer.db" // Default filename
		}
		storageField["dataSourceName"] = dataSourceName
		store, err = sqldb.NewSQLite(dataSourceName)
	case "mysql":
		dsn := os.Getenv("MYSQL_DSN")
		if dsn == "" {
			logrus.Fatal("MYSQL_DSN environment variable must be set for mysql storage type")
		}
		store, err = sqldb.NewMySQL(dsn)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store, err = aws.NewStore(context.Background(), bucketName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	if err != nil {
		logrus.WithFields(storageField).WithError(err).Fatal("Failed to initialise storage")
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
