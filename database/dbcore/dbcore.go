package dbcore

import (
	"fmt"
	"strings"

	logutil "github.com/chengshang-tools/update-server/utils/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MemoryDSN 返回共享缓存的内存 SQLite DSN；同名连接看到同一个库
func MemoryDSN(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "releases"
	}
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

// OpenMemory 打开内存数据库并迁移表结构。进程退出后数据即丢失。
func OpenMemory(name string, models ...any) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(MemoryDSN(name)), &gorm.Config{
		Logger: logutil.GormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// 单连接：串行化写入，并保证内存库不会因连接全部关闭而被回收
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
