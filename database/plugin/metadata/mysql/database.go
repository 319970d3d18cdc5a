// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mysql

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/forge/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// mysqlErrUnknownDatabase is reported when the target database is missing
const mysqlErrUnknownDatabase = 1049

// MetadataStoreMysql keeps the notification journal in MySQL
type MetadataStoreMysql struct {
	*gormstore.Store
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	host           string
	user           string
	password       string
	database       string
	sslMode        string
	timeZone       string
	dsn            string
	port           uint
	maxConnections int
}

// NewWithOptions creates a new store. The connection is not opened until
// Start is called.
func NewWithOptions(opts ...MysqlOptionFunc) (*MetadataStoreMysql, error) {
	d := &MetadataStoreMysql{}
	for _, opt := range opts {
		opt(d)
	}
	if d.host == "" {
		d.host = "localhost"
	}
	if d.port == 0 {
		d.port = 3306
	}
	if d.user == "" {
		d.user = "root"
	}
	if d.database == "" {
		d.database = "forge"
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return d, nil
}

// buildConfig returns the driver config for the configured DSN, or one
// assembled from the individual connection options
func (d *MetadataStoreMysql) buildConfig() (*mysql.Config, error) {
	if dsn := strings.TrimSpace(d.dsn); dsn != "" {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql DSN: %w", err)
		}
		return cfg, nil
	}
	cfg := mysql.NewConfig()
	cfg.User = d.user
	cfg.Passwd = d.password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.host, strconv.FormatUint(uint64(d.port), 10))
	cfg.DBName = d.database
	cfg.ParseTime = true
	if d.timeZone != "" {
		loc, err := time.LoadLocation(d.timeZone)
		if err != nil {
			return nil, fmt.Errorf("load time zone: %w", err)
		}
		cfg.Loc = loc
	}
	if d.sslMode != "" {
		cfg.TLSConfig = d.sslMode
	}
	return cfg, nil
}

func (d *MetadataStoreMysql) open(dsn string) (*gorm.DB, error) {
	return gorm.Open(
		gormmysql.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		},
	)
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Start() error {
	if d.Store != nil {
		return nil
	}
	cfg, err := d.buildConfig()
	if err != nil {
		return err
	}
	db, err := d.open(cfg.FormatDSN())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if !errors.As(err, &mysqlErr) ||
			mysqlErr.Number != mysqlErrUnknownDatabase {
			return err
		}
		if err := d.createDatabase(cfg); err != nil {
			return err
		}
		db, err = d.open(cfg.FormatDSN())
		if err != nil {
			return err
		}
	}
	d.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"addr", cfg.Addr,
		"database", cfg.DBName,
	)
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	if d.maxConnections > 0 {
		sqlDB.SetMaxOpenConns(d.maxConnections)
	} else {
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	store, err := gormstore.New(db, d.logger, d.promRegistry)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	d.Store = store
	return nil
}

// createDatabase connects without a database selected and creates the
// configured one
func (d *MetadataStoreMysql) createDatabase(cfg *mysql.Config) error {
	if cfg.DBName == "" {
		return errors.New("mysql: no database name configured")
	}
	adminCfg := cfg.Clone()
	adminCfg.DBName = ""
	adminDb, err := d.open(adminCfg.FormatDSN())
	if err != nil {
		return err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return err
	}
	defer sqlAdminDb.Close()
	d.logger.Info(
		"creating mysql database",
		"component", "database",
		"database", cfg.DBName,
	)
	dbName := strings.ReplaceAll(cfg.DBName, "`", "``")
	return adminDb.Exec("CREATE DATABASE IF NOT EXISTS `" + dbName + "`").Error
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

func (d *MetadataStoreMysql) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
