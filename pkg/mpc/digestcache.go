package mpc

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/texrepo/mpc/pkg/dospath"
)

// digestCacheRow is one cached (path, mtime, size) -> digest fact. It is
// purely an optimization: a miss always falls back to FileDigest, so a
// stale or absent cache never changes the repository mpc produces, only
// how long --update-repository takes on an unchanged staging tree.
type digestCacheRow struct {
	Path    string `gorm:"primaryKey"`
	ModTime int64  `gorm:"primaryKey"`
	Size    int64
	Digest  string
}

// DigestCache memoizes FileDigest results across runs in a sqlite file
// next to the repository being built.
type DigestCache struct {
	db *gorm.DB
}

// OpenDigestCache opens (creating if needed) the cache database at path.
func OpenDigestCache(path string) (*DigestCache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, &IoFailure{Path: path, Err: err}
	}
	if err := db.AutoMigrate(&digestCacheRow{}); err != nil {
		return nil, &IoFailure{Path: path, Err: err}
	}
	return &DigestCache{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (c *DigestCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FileDigestCached behaves like dospath.FileDigest but checks the cache
// first, keyed by path/mtime/size, and populates it on a miss.
func (c *DigestCache) FileDigestCached(path string, modTime time.Time, size int64) (dospath.Digest, error) {
	var row digestCacheRow
	err := c.db.Where("path = ? AND mod_time = ? AND size = ?", path, modTime.Unix(), size).First(&row).Error
	if err == nil {
		return dospath.ParseDigest(row.Digest)
	}

	digest, err := dospath.FileDigest(path)
	if err != nil {
		return dospath.Digest{}, err
	}

	c.db.Where("path = ?", path).Delete(&digestCacheRow{})
	c.db.Create(&digestCacheRow{Path: path, ModTime: modTime.Unix(), Size: size, Digest: digest.String()})

	return digest, nil
}
