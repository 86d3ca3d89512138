package bootstrap

import (
	"context"
	"fmt"
	"time"

	"Polis/internal/economy/app"
	levelstore "Polis/internal/economy/infra/persistence/leveldb"
	mongostore "Polis/internal/economy/infra/persistence/mongodb"
	"Polis/internal/economy/infra/persistence/mysql"
	"Polis/internal/shared/gameconfig/building"
	"Polis/internal/shared/infrastructure/db"
	mongoinfra "Polis/internal/shared/infrastructure/mongo"
	"Polis/internal/shared/serverconfig"
	"Polis/internal/shared/utils"
	"Polis/modules/kit/logx"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultMongoDatabase = "polis"

// Deps 是各进程共用的经济域依赖：存储、配置表、tick 日志。
type Deps struct {
	DB       *gorm.DB
	Store    app.Store
	Catalog  *building.Catalog
	Settings app.Settings
	Journal  app.TickJournal
	NodeID   int64
	Log      logx.Logger

	closers []func()
}

func Open(cfg serverconfig.Config, zl *zap.Logger) (*Deps, error) {
	if zl == nil {
		zl = zap.NewNop()
	}
	d := &Deps{
		Settings: app.SettingsFrom(cfg.Economy),
		NodeID:   cfg.NodeID,
		Log:      logx.NewZapLogger(zl),
	}

	catalog, err := building.Load(cfg.Economy.CatalogFile)
	if err != nil {
		return nil, err
	}
	d.Catalog = catalog

	gormDB, err := db.Open(cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	d.DB = gormDB
	d.closers = append(d.closers, func() { db.Close(gormDB) })
	if cfg.MySQL.AutoMigrate {
		if err := mysql.AutoMigrate(gormDB); err != nil {
			d.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	d.Store = mysql.NewStore(gormDB)

	journal, closeJournal, err := OpenJournal(cfg, zl)
	if err != nil {
		// tick 日志只用于排障，打不开时降级为不记录
		zl.Warn("tick journal disabled", zap.Error(err))
	} else if journal != nil {
		d.Journal = journal
		d.closers = append(d.closers, closeJournal)
	}
	return d, nil
}

// OpenJournal 按配置选择 tick 日志：配置了 mongodb.uri 用 Mongo，否则配置了 leveldb.path 用本地 leveldb，都没有返回 nil。
func OpenJournal(cfg serverconfig.Config, zl *zap.Logger) (app.TickJournal, func(), error) {
	switch {
	case cfg.MongoDB.URI != "":
		client, err := mongoinfra.Open(cfg.MongoDB, zl)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongodb: %w", err)
		}
		name := cfg.MongoDB.Database
		if name == "" {
			name = defaultMongoDatabase
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return mongostore.NewTickJournal(client.Database(name)), closeFn, nil
	case cfg.LevelDB.Path != "":
		j, err := levelstore.OpenTickJournal(cfg.LevelDB.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open leveldb: %w", err)
		}
		return j, func() { _ = j.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

// TickService 按本节点的 snowflake 编号生成 tick 运行号。
func (d *Deps) TickService(opts ...app.TickOption) (*app.TickService, error) {
	sf, err := utils.NewSnowflake(d.NodeID)
	if err != nil {
		return nil, err
	}
	base := []app.TickOption{app.WithRunIDs(sf)}
	if d.Journal != nil {
		base = append(base, app.WithJournal(d.Journal))
	}
	return app.NewTickService(d.Store, d.Catalog, d.Settings, d.Log, append(base, opts...)...), nil
}

func (d *Deps) EconomyService(ticks app.TickRunner, opts ...app.Option) *app.EconomyService {
	return app.NewEconomyService(d.Store, d.Catalog, d.Settings, d.Log, ticks, opts...)
}

// Close 逆序释放。
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
