package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/cargolink/cargolink/internal/address"
	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/charge"
	"github.com/cargolink/cargolink/internal/common/config"
	"github.com/cargolink/cargolink/internal/common/db"
	"github.com/cargolink/cargolink/internal/common/logger"
	"github.com/cargolink/cargolink/internal/common/middleware"
	"github.com/cargolink/cargolink/internal/common/server"
	"github.com/cargolink/cargolink/internal/common/tracing"
	"github.com/cargolink/cargolink/internal/company"
	"github.com/cargolink/cargolink/internal/dashboard"
	"github.com/cargolink/cargolink/internal/dispatch"
	"github.com/cargolink/cargolink/internal/distance"
	"github.com/cargolink/cargolink/internal/driver"
	"github.com/cargolink/cargolink/internal/order"
	"github.com/cargolink/cargolink/internal/settlement"
	"github.com/cargolink/cargolink/internal/user"
)

var configPath = flag.String("config", "configs/server.json", "config file path")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Backend, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	_, closer, err := tracing.InitTracer(cfg.Server.Name, cfg.Jaeger.Endpoint, cfg.Jaeger.Sampler)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}

	gormDB, err := db.NewMySQL(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&changelog.Record{},
		&company.Company{},
		&driver.Driver{},
		&address.Address{},
		&user.User{},
		&order.Order{},
		&dispatch.Dispatch{},
		&charge.Group{},
		&charge.Line{},
		&settlement.OrderSale{},
		&settlement.OrderPurchase{},
		&settlement.Bundle{},
		&settlement.BundleItem{},
		&settlement.ItemAdjustment{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	logs := changelog.NewLogger(gormDB)
	distanceCache := distance.NewCache(rdb, nil, log)

	orderSvc := order.NewService(gormDB, logs, distanceCache)
	companySvc := company.NewService(gormDB, logs)
	driverSvc := driver.NewService(gormDB, logs)
	addressSvc := address.NewService(gormDB, logs)
	userSvc := user.NewService(gormDB, logs)
	dispatchSvc := dispatch.NewService(gormDB, logs)
	chargeSvc := charge.NewService(gormDB, dispatchSvc, logs)
	settlementSvc := settlement.NewService(gormDB, logs)
	dashboardSvc := dashboard.NewService(gormDB)

	userHandler := user.NewHandler(userSvc, cfg.Auth)
	handlers := []interface {
		RegisterRoutes(rg *gin.RouterGroup)
	}{
		order.NewHandler(orderSvc),
		company.NewHandler(companySvc),
		driver.NewHandler(driverSvc),
		address.NewHandler(addressSvc),
		userHandler,
		dispatch.NewHandler(dispatchSvc),
		charge.NewHandler(chargeSvc),
		settlement.NewHandler(settlementSvc),
		dashboard.NewHandler(dashboardSvc),
		changelog.NewHandler(logs),
	}

	err = server.Run(cfg, log, func(r *gin.Engine) error {
		public := r.Group("/api")
		userHandler.RegisterPublicRoutes(public)

		api := r.Group("/api", middleware.ActorAuth(cfg.Auth))
		for _, h := range handlers {
			h.RegisterRoutes(api)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
