// Package storage selects the repository implementations of the configured database engine.
package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
	"github.com/ionode-cloud/ERP-Cell/storage/database"
	inmemdb "github.com/ionode-cloud/ERP-Cell/storage/database/inmem"
	mongorepos "github.com/ionode-cloud/ERP-Cell/storage/database/mongo"
	sqlxrepos "github.com/ionode-cloud/ERP-Cell/storage/database/sqlx"
)

// Store holds one repository per entity, all backed by the same database.
type Store struct {
	Users      user.Repository
	Branches   branch.Repository
	Students   student.Repository
	Teachers   teacher.Repository
	Attendance attendance.Repository
	Marks      mark.Repository
	Fees       fee.Repository

	sqlDB *sql.DB
	close func(ctx context.Context) error
}

// Open connects to conf.Database.Engine and prepares its schema: indexes on mongodb, migrations on postgres.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (*Store, error) {
	switch conf.Database.Engine {
	case core.EngineMongo:
		client, db, err := database.OpenMongo(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("connected to mongodb", map[string]interface{}{"database": conf.Database.Name})
		return &Store{
			Users:      mongorepos.NewUserRepository(db, conf),
			Branches:   mongorepos.NewBranchRepository(db, conf),
			Students:   mongorepos.NewStudentRepository(db, conf),
			Teachers:   mongorepos.NewTeacherRepository(db, conf),
			Attendance: mongorepos.NewAttendanceRepository(db, conf),
			Marks:      mongorepos.NewMarkRepository(db, conf),
			Fees:       mongorepos.NewFeeRepository(db, conf),
			close:      client.Disconnect,
		}, nil

	case core.EnginePostgres:
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("connected to postgres", map[string]interface{}{"database": conf.Database.Name})
		return &Store{
			Users:      sqlxrepos.NewUserRepository(db, conf),
			Branches:   sqlxrepos.NewBranchRepository(db, conf),
			Students:   sqlxrepos.NewStudentRepository(db, conf),
			Teachers:   sqlxrepos.NewTeacherRepository(db, conf),
			Attendance: sqlxrepos.NewAttendanceRepository(db, conf),
			Marks:      sqlxrepos.NewMarkRepository(db, conf),
			Fees:       sqlxrepos.NewFeeRepository(db, conf),
			sqlDB:      db.DB,
			close:      func(context.Context) error { return db.Close() },
		}, nil

	case core.EngineMemory:
		logger.Warn("using the in-memory database, data is lost on exit")
		return NewMemoryStore(), nil
	}
	return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
}

// NewMemoryStore returns a store on a fresh in-memory database.
func NewMemoryStore() *Store {
	db := inmemdb.Open()
	return &Store{
		Users:      inmemdb.NewUserRepository(db),
		Branches:   inmemdb.NewBranchRepository(db),
		Students:   inmemdb.NewStudentRepository(db),
		Teachers:   inmemdb.NewTeacherRepository(db),
		Attendance: inmemdb.NewAttendanceRepository(db),
		Marks:      inmemdb.NewMarkRepository(db),
		Fees:       inmemdb.NewFeeRepository(db),
		close:      func(context.Context) error { return nil },
	}
}

// SQL returns the postgres connection, nil on the other engines.
func (s *Store) SQL() *sql.DB {
	return s.sqlDB
}

func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
